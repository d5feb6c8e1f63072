package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/boltstore"
	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/filestore"
	"github.com/gatehousehq/gatehouse/internal/adapter/outbound/memstore"
	"github.com/gatehousehq/gatehouse/internal/port"
)

// OpenBackend resolves the §6 backend spec ("nil", "file:<path>",
// "bolt:<path>") into a concrete port.Storage. The caller owns closing the
// result if it implements io.Closer (boltstore does; the others are no-ops).
func OpenBackend(spec string, logger *slog.Logger) (port.Storage, error) {
	switch {
	case spec == "nil":
		return memstore.New(), nil
	case strings.HasPrefix(spec, "file:"):
		path := strings.TrimPrefix(spec, "file:")
		return filestore.New(path)
	case strings.HasPrefix(spec, "bolt:"):
		path := strings.TrimPrefix(spec, "bolt:")
		return boltstore.New(path, logger)
	default:
		return nil, fmt.Errorf("unrecognized backend spec %q", spec)
	}
}
