// Package store provides the durable store for the roster, the
// registration list, and event settings. It is a SQLite database (pure-Go
// driver); an in-memory database is used when no data directory is
// configured.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/accordlabs/checkin/internal/event"
)

// Settings keys. Placements are stored as JSON.
const (
	keyEventName        = "event_name"
	keyAutoPrintBadges  = "auto_print_badges"
	keyPrePrintedBadges = "pre_printed_badges"
	keyPrePrintedCerts  = "pre_printed_certificates"
	keyBadgeTemplate    = "badge_template"
	keyBadgePlacement   = "badge_placement"
	keyCertTemplate     = "cert_template"
	keyCertPlacement    = "cert_placement"
)

type attendeeRow struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Position int    `gorm:"index"`
	Name     string `gorm:"not null"`
	Phone    string `gorm:"not null"`
}

func (attendeeRow) TableName() string { return "attendees" }

type registrationRow struct {
	ID                string `gorm:"primaryKey"`
	Name              string `gorm:"not null"`
	Phone             string `gorm:"not null"`
	Origin            string `gorm:"not null"`
	RegisteredAt      time.Time
	BadgeIssued       bool
	CertificateIssued bool
}

func (registrationRow) TableName() string { return "registrations" }

type settingRow struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (settingRow) TableName() string { return "settings" }

// Store wraps the SQLite database.
type Store struct {
	db              *gorm.DB
	logger          *zap.Logger
	maxSettingBytes int
}

// New opens (or creates) the store. An empty dataDir selects a shared
// in-memory database. maxSettingBytes caps the size of a single settings
// value (template assets); zero disables the cap.
func New(dataDir string, logger *zap.Logger, maxSettingBytes int) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var db *gorm.DB
	var err error
	if dataDir == "" {
		db, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			&gorm.Config{Logger: gormlogger.Discard, SkipDefaultTransaction: true},
		)
	} else {
		if _, statErr := os.Stat(dataDir); statErr != nil {
			if !errors.Is(statErr, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", statErr)
			}
			if mkErr := os.MkdirAll(dataDir, fs.ModePerm); mkErr != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", mkErr)
			}
		}
		dbPath := filepath.Join(dataDir, "checkin.sqlite")
		db, err = gorm.Open(
			sqlite.Open(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", dbPath)),
			&gorm.Config{Logger: gormlogger.Discard, SkipDefaultTransaction: true},
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&attendeeRow{}, &registrationRow{}, &settingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db, logger: logger, maxSettingBytes: maxSettingBytes}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceRoster atomically swaps the whole roster for a new one. Positions
// preserve upload order, which later drives suggestion tie-breaks.
func (s *Store) ReplaceRoster(entries []event.RosterEntry) error {
	rows := make([]attendeeRow, len(entries))
	for i, e := range entries {
		rows[i] = attendeeRow{Position: i, Name: e.Name, Phone: e.Phone}
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&attendeeRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear roster: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert roster: %w", err)
		}
		return nil
	})
}

// Roster returns the official attendee list in upload order.
func (s *Store) Roster() ([]event.RosterEntry, error) {
	var rows []attendeeRow
	if err := s.db.Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	entries := make([]event.RosterEntry, len(rows))
	for i, r := range rows {
		entries[i] = event.RosterEntry{Name: r.Name, Phone: r.Phone}
	}
	return entries, nil
}

// Registrations returns all completed check-ins, oldest first.
func (s *Store) Registrations() ([]event.Registration, error) {
	var rows []registrationRow
	if err := s.db.Order("registered_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load registrations: %w", err)
	}
	regs := make([]event.Registration, len(rows))
	for i, r := range rows {
		regs[i] = toRegistration(r)
	}
	return regs, nil
}

// Registration looks up a single registration by ID.
func (s *Store) Registration(id string) (event.Registration, error) {
	var row registrationRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		return event.Registration{}, fmt.Errorf("registration %s: %w", id, err)
	}
	return toRegistration(row), nil
}

// AppendRegistration persists a new registration record.
func (s *Store) AppendRegistration(reg event.Registration) error {
	row := registrationRow{
		ID:                reg.ID,
		Name:              reg.Name,
		Phone:             reg.Phone,
		Origin:            string(reg.Origin),
		RegisteredAt:      reg.RegisteredAt,
		BadgeIssued:       reg.BadgeIssued,
		CertificateIssued: reg.CertificateIssued,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// SetBadgeIssued marks a registration's badge as issued. Monotonic: the
// flag is only ever raised, never cleared, outside a full reset.
func (s *Store) SetBadgeIssued(id string) error {
	return s.setFlag(id, "badge_issued")
}

// SetCertificateIssued marks a registration's certificate as issued.
func (s *Store) SetCertificateIssued(id string) error {
	return s.setFlag(id, "certificate_issued")
}

func (s *Store) setFlag(id, column string) error {
	res := s.db.Model(&registrationRow{}).Where("id = ?", id).Update(column, true)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("registration %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetSetting returns the raw value for a settings key, with a found flag.
func (s *Store) GetSetting(key string) (string, bool, error) {
	var row settingRow
	err := s.db.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return row.Value, true, nil
}

// PutSetting stores a settings value. Template assets above the configured
// budget are rejected with ErrStorageQuota; the rest of the system is
// unaffected.
func (s *Store) PutSetting(key, value string) error {
	if s.maxSettingBytes > 0 && isTemplateKey(key) && len(value) > s.maxSettingBytes {
		return fmt.Errorf("setting %s is %d bytes: %w", key, len(value), event.ErrStorageQuota)
	}
	row := settingRow{Key: key, Value: value}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// LoadSettings assembles the event settings from the KV table, applying
// defaults for anything unset.
func (s *Store) LoadSettings() (event.Settings, error) {
	set := event.Settings{
		BadgePlacement: event.DefaultPlacement(),
		CertPlacement:  event.DefaultPlacement(),
	}
	var rows []settingRow
	if err := s.db.Find(&rows).Error; err != nil {
		return set, fmt.Errorf("failed to load settings: %w", err)
	}
	for _, row := range rows {
		switch row.Key {
		case keyEventName:
			set.EventName = row.Value
		case keyAutoPrintBadges:
			set.AutoPrintBadges = row.Value == "true"
		case keyPrePrintedBadges:
			set.PrePrintedBadges = row.Value == "true"
		case keyPrePrintedCerts:
			set.PrePrintedCertificates = row.Value == "true"
		case keyBadgeTemplate:
			set.BadgeTemplate = row.Value
		case keyCertTemplate:
			set.CertTemplate = row.Value
		case keyBadgePlacement:
			if err := json.Unmarshal([]byte(row.Value), &set.BadgePlacement); err != nil {
				s.logger.Warn("ignoring malformed badge placement", zap.Error(err))
				set.BadgePlacement = event.DefaultPlacement()
			}
		case keyCertPlacement:
			if err := json.Unmarshal([]byte(row.Value), &set.CertPlacement); err != nil {
				s.logger.Warn("ignoring malformed certificate placement", zap.Error(err))
				set.CertPlacement = event.DefaultPlacement()
			}
		}
	}
	return set, nil
}

// SaveSettings writes the full settings block. Template values go through
// the quota check; a quota failure on one template does not roll back the
// other keys, matching the degraded-but-usable behavior of template saves.
func (s *Store) SaveSettings(set event.Settings) error {
	badgePlacement, err := json.Marshal(set.BadgePlacement)
	if err != nil {
		return err
	}
	certPlacement, err := json.Marshal(set.CertPlacement)
	if err != nil {
		return err
	}
	plain := map[string]string{
		keyEventName:        set.EventName,
		keyAutoPrintBadges:  fmt.Sprintf("%t", set.AutoPrintBadges),
		keyPrePrintedBadges: fmt.Sprintf("%t", set.PrePrintedBadges),
		keyPrePrintedCerts:  fmt.Sprintf("%t", set.PrePrintedCertificates),
		keyBadgePlacement:   string(badgePlacement),
		keyCertPlacement:    string(certPlacement),
	}
	for key, value := range plain {
		if err := s.PutSetting(key, value); err != nil {
			return err
		}
	}
	var quotaErr error
	for key, value := range map[string]string{
		keyBadgeTemplate: set.BadgeTemplate,
		keyCertTemplate:  set.CertTemplate,
	} {
		if value == "" {
			continue
		}
		if err := s.PutSetting(key, value); err != nil {
			if errors.Is(err, event.ErrStorageQuota) {
				s.logger.Warn("template rejected by storage quota", zap.String("key", key))
				quotaErr = err
				continue
			}
			return err
		}
	}
	return quotaErr
}

// Reset clears the roster, all registrations, and all settings.
func (s *Store) Reset() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&attendeeRow{}, &registrationRow{}, &settingRow{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to reset store: %w", err)
			}
		}
		return nil
	})
}

func isTemplateKey(key string) bool {
	return key == keyBadgeTemplate || key == keyCertTemplate
}

func toRegistration(r registrationRow) event.Registration {
	return event.Registration{
		ID:                r.ID,
		Name:              r.Name,
		Phone:             r.Phone,
		Origin:            event.Origin(r.Origin),
		RegisteredAt:      r.RegisteredAt,
		BadgeIssued:       r.BadgeIssued,
		CertificateIssued: r.CertificateIssued,
	}
}
