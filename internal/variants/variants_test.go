package variants

import (
	"slices"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()
	if tbl.Len() == 0 {
		t.Fatal("embedded table is empty")
	}
}

func TestExpand(t *testing.T) {
	tbl := Default()

	got := tbl.Expand("mostafa")
	for _, want := range []string{"mustafa", "mustapha", "moustapha", "moustafa"} {
		if !slices.Contains(got, want) {
			t.Errorf("Expand(mostafa) = %v, missing %q", got, want)
		}
	}
	if slices.Contains(got, "mostafa") {
		t.Errorf("Expand(mostafa) should not contain the name itself: %v", got)
	}

	if got := tbl.Expand("zzz-unknown"); len(got) != 0 {
		t.Errorf("Expand of unknown name = %v, want empty", got)
	}
}

func TestExpandNormalizesInput(t *testing.T) {
	tbl := Default()
	if got := tbl.Expand("  Mostafa "); len(got) == 0 {
		t.Error("Expand should lower-case and trim before lookup")
	}
}

func TestTableIsSymmetric(t *testing.T) {
	tbl := Default()
	for name, vars := range tbl.groups {
		for _, v := range vars {
			if !slices.Contains(tbl.Expand(v), name) {
				t.Errorf("%q lists %q but not vice versa", name, v)
			}
		}
	}
}

func TestParseSymmetrizesGroups(t *testing.T) {
	tbl, err := parse([]byte("alpha: [beta, gamma]\n"))
	if err != nil {
		t.Fatal(err)
	}
	// Every member of the group must see both others.
	if got := tbl.Expand("beta"); !slices.Contains(got, "alpha") || !slices.Contains(got, "gamma") {
		t.Errorf("Expand(beta) = %v, want alpha and gamma", got)
	}
	if got := tbl.Expand("gamma"); !slices.Contains(got, "beta") {
		t.Errorf("Expand(gamma) = %v, want beta", got)
	}
}
