package specification

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BySource filters passages extracted from one file, including all its pages
type BySource struct {
	Path string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	// file names may contain LIKE wildcards
	return db.Where(`source = ? OR source LIKE ? ESCAPE '\'`, s.Path, likeEscaper.Replace(s.Path)+"#%")
}
