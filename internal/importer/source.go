package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/spf13/afero"
)

// Source errors.
var (
	// ErrNoFiles is returned when the memory card holds no vCard files.
	ErrNoFiles = errors.New("no vCard files found")

	// ErrNoContacts is returned when vCard files exist but contain no contacts.
	ErrNoContacts = errors.New("no contacts were found")
)

// vCardExtensions are the file extensions scanned on a memory card.
var vCardExtensions = []string{".vcf", ".vcard"}

// SIMSource reads the phonebook of one SIM card.
type SIMSource struct {
	provider ril.ICCProvider
	iccID    string
}

// NewSIMSource creates a source for the card iccID.
func NewSIMSource(provider ril.ICCProvider, iccID string) *SIMSource {
	return &SIMSource{provider: provider, iccID: iccID}
}

func (s *SIMSource) Name() string { return "sim-" + s.iccID }

func (s *SIMSource) Read(ctx context.Context) ([]contacts.Contact, error) {
	icc, err := s.provider.ICC(ctx, s.iccID)
	if err != nil {
		return nil, err
	}
	return icc.ReadContacts(ctx)
}

// VCardSource reads contacts from vCard text.
type VCardSource struct {
	text string
}

// NewVCardSource creates a source over text.
func NewVCardSource(text string) *VCardSource {
	return &VCardSource{text: text}
}

func (s *VCardSource) Name() string { return "vcard" }

func (s *VCardSource) Read(ctx context.Context) ([]contacts.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseVCards(s.text)
}

// SDCardSource reads every vCard file below root on a memory card.
type SDCardSource struct {
	fs   afero.Fs
	root string
}

// NewSDCardSource creates a source scanning root on fsys.
func NewSDCardSource(fsys afero.Fs, root string) *SDCardSource {
	return &SDCardSource{fs: fsys, root: root}
}

func (s *SDCardSource) Name() string { return "sd" }

func (s *SDCardSource) Read(ctx context.Context) ([]contacts.Contact, error) {
	files, err := s.files(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	parts := make([]string, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := afero.ReadFile(s.fs, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if text := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return nil, ErrNoContacts
	}

	found, err := ParseVCards(strings.Join(parts, "\n"))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNoContacts
	}
	return found, nil
}

// files lists vCard files below root in lexical order.
func (s *SDCardSource) files(ctx context.Context) ([]string, error) {
	var files []string
	err := afero.Walk(s.fs, s.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if slices.Contains(vCardExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan memory card: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
