// Package inventory persists the single source-of-truth record describing
// what the install flow has provisioned. Absence of the record means the
// platform is not installed; presence with an empty RoleARN means a prior
// install stopped partway and the next run must resume with the recorded
// identifiers.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// DefaultPath is the record location relative to the repository root.
const DefaultPath = ".bootlace/inventory.json"

var validate = validator.New()

// Record is the persisted installation inventory. Fields are filled
// incrementally as provisioning stages succeed; derived names are immutable
// once written.
type Record struct {
	Region        string `json:"region" validate:"required"`
	AccountID     string `json:"account_id" validate:"required,len=12,numeric"`
	StateBucket   string `json:"state_bucket" validate:"required"`
	LockTable     string `json:"lock_table" validate:"required"`
	RoleName      string `json:"role_name" validate:"required"`
	RoleARN       string `json:"role_arn,omitempty"`
	Org           string `json:"org" validate:"required"`
	Repo          string `json:"repo" validate:"required"`
	DefaultBranch string `json:"default_branch" validate:"required"`
	WatchPath     string `json:"watch_path" validate:"required"`
	CreatedAt     string `json:"created_at" validate:"required"`
}

// Complete reports whether every install stage finished. The role ARN is
// the last field populated, so it doubles as the completion marker.
func (r *Record) Complete() bool {
	return r != nil && r.RoleARN != ""
}

// Merge copies every non-empty field of partial onto r. Used by the
// multi-stage install flow to persist progress after each stage.
func (r *Record) Merge(partial Record) {
	fields := []struct {
		dst *string
		src string
	}{
		{&r.Region, partial.Region},
		{&r.AccountID, partial.AccountID},
		{&r.StateBucket, partial.StateBucket},
		{&r.LockTable, partial.LockTable},
		{&r.RoleName, partial.RoleName},
		{&r.RoleARN, partial.RoleARN},
		{&r.Org, partial.Org},
		{&r.Repo, partial.Repo},
		{&r.DefaultBranch, partial.DefaultBranch},
		{&r.WatchPath, partial.WatchPath},
		{&r.CreatedAt, partial.CreatedAt},
	}
	for _, f := range fields {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}

// Store reads and writes the inventory record at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the record, or nil if no record exists. A record that is
// present but unparseable is a fatal precondition: the flow must not guess
// missing fields.
func (s *Store) Load() (*Record, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", s.path, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("inventory %s is corrupt: %w", s.path, err)
	}
	return &rec, nil
}

// Save writes the record atomically (temp-file-then-rename) so a crash
// mid-write cannot corrupt it. Partially-populated records are allowed;
// full field validation only applies to complete records.
func (s *Store) Save(rec *Record) error {
	if rec.Complete() {
		if err := validate.Struct(rec); err != nil {
			return fmt.Errorf("inventory record invalid: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create inventory directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".inventory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp inventory file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close inventory file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace inventory file: %w", err)
	}
	return nil
}

// Delete removes the record. Missing records are not an error; uninstall
// retries may have already removed it.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove inventory %s: %w", s.path, err)
	}
	return nil
}
