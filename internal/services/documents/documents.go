package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"towlot/internal/config"
	"towlot/internal/services"
	"towlot/internal/store"
)

// KindAuctionNotice is the newspaper auction notice form.
const KindAuctionNotice = "auction-notice"

// Generator produces one compliance form and returns its artifact reference.
type Generator interface {
	Generate(ctx context.Context, kind string, vehicle *store.Vehicle) (string, error)
}

// FileGenerator writes forms as text files under the documents directory.
type FileGenerator struct {
	dir    string
	agency string
	now    func() time.Time
}

// NewFileGenerator constructs a generator writing into the configured
// documents directory.
func NewFileGenerator(cfg *config.Config) *FileGenerator {
	return &FileGenerator{
		dir:    cfg.Paths.DocumentsDir,
		agency: cfg.Documents.Agency,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders the requested form and returns the written file path.
func (g *FileGenerator) Generate(ctx context.Context, kind string, vehicle *store.Vehicle) (string, error) {
	if vehicle == nil {
		return "", services.Wrap(services.ErrValidation, "documents", "generate", "vehicle is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var content string
	switch kind {
	case KindAuctionNotice:
		content = g.renderAuctionNotice(vehicle)
	default:
		return "", services.Wrap(services.ErrValidation, "documents", "generate",
			fmt.Sprintf("unknown document kind %q", kind), nil)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "documents", "generate", "create documents directory", err)
	}

	name := fmt.Sprintf("%s-%s-%s.txt", vehicle.CallNumber, kind, g.now().Format("20060102"))
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "documents", "generate", "write form", err)
	}
	return path, nil
}

func (g *FileGenerator) renderAuctionNotice(v *store.Vehicle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NOTICE OF PUBLIC AUCTION\n")
	fmt.Fprintf(&b, "Agency: %s\n\n", g.agency)
	fmt.Fprintf(&b, "Call Number: %s\n", v.CallNumber)
	fmt.Fprintf(&b, "Vehicle: %s %s\n", v.Make, v.Model)
	fmt.Fprintf(&b, "Plate: %s\n", v.Plate)
	fmt.Fprintf(&b, "Jurisdiction: %s\n", v.Jurisdiction)
	fmt.Fprintf(&b, "Impounded: %s\n", v.IntakeAt.Format("2006-01-02"))
	if v.AuctionDate != nil {
		fmt.Fprintf(&b, "Auction Date: %s\n", v.AuctionDate.Format("2006-01-02"))
	}
	if v.AdRunDate != nil {
		fmt.Fprintf(&b, "Publication Date: %s\n", v.AdRunDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nThe above vehicle will be sold at public auction unless claimed and all fees are paid before the auction date.\n")
	return b.String()
}
