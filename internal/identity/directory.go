package identity

import (
	"context"
	"strings"

	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/rows"
)

// Directory answers "which role does this email have". Lookup reports
// found=false when no record matches.
type Directory interface {
	Lookup(ctx context.Context, email string) (user model.DirectoryUser, found bool, err error)
	Register(ctx context.Context, user model.DirectoryUser) (remote.AppendResult, error)
}

// freshLooker is implemented by directories that can bypass a cache.
type freshLooker interface {
	LookupFresh(ctx context.Context, email string) (model.DirectoryUser, bool, error)
}

// invalidator is implemented by caching row services.
type invalidator interface {
	Invalidate(ctx context.Context, sheet string)
}

// SheetDirectory reads the Users sheet of the row service.
type SheetDirectory struct {
	rows remote.RowService
}

func NewSheetDirectory(rs remote.RowService) *SheetDirectory {
	return &SheetDirectory{rows: rs}
}

// Lookup returns the last record matching email. The Users sheet is
// append-only, so a later row for the same email supersedes earlier ones.
func (d *SheetDirectory) Lookup(ctx context.Context, email string) (model.DirectoryUser, bool, error) {
	data, err := d.rows.GetAll(ctx, rows.SheetUsers)
	if err != nil {
		return model.DirectoryUser{}, false, err
	}
	want := normalizeEmail(email)
	if want == "" {
		return model.DirectoryUser{}, false, nil
	}
	var (
		match model.DirectoryUser
		found bool
	)
	for _, u := range rows.ToDirectoryUsers(data) {
		if normalizeEmail(u.Email) == want {
			match, found = u, true
		}
	}
	return match, found, nil
}

// LookupFresh drops any cached copy of the Users sheet before looking
// email up.
func (d *SheetDirectory) LookupFresh(ctx context.Context, email string) (model.DirectoryUser, bool, error) {
	if inv, ok := d.rows.(invalidator); ok {
		inv.Invalidate(ctx, rows.SheetUsers)
	}
	return d.Lookup(ctx, email)
}

// Register appends the user to the Users sheet. The append is best
// effort; see remote.AppendResult.
func (d *SheetDirectory) Register(ctx context.Context, user model.DirectoryUser) (remote.AppendResult, error) {
	return d.rows.Append(ctx, rows.SheetUsers, rows.FromDirectoryUser(user))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
