package backup

import (
	"strconv"
	"time"

	"github.com/kleverson/cartas/internal/api"
)

// File names inside the backup archive.
const (
	PostsFile    = "artigos.csv"
	LeadsFile    = "leads_comunidade.csv"
	MetadataFile = "metadados.csv"
)

// FormatVersion is written to the metadata file of every backup.
const FormatVersion = "1.0"

const (
	dateTimeLayout = "02/01/2006 15:04"
	longDateLayout = "02/01/2006 às 15:04"
)

// Column renders one CSV column of a row of type T.
type Column[T any] struct {
	Header string
	Value  func(row T) string
}

// Metadata describes a single backup run.
type Metadata struct {
	CreatedAt  time.Time
	PostsCount int
	LeadsCount int
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// PostColumns returns the columns of artigos.csv, with dates rendered in loc.
func PostColumns(loc *time.Location) []Column[api.Post] {
	date := func(t time.Time) string { return t.In(loc).Format(dateTimeLayout) }
	return []Column[api.Post]{
		{"ID", func(p api.Post) string { return p.ID }},
		{"Titulo", func(p api.Post) string { return p.Title }},
		{"Slug", func(p api.Post) string { return p.Slug }},
		{"Categoria", func(p api.Post) string { return p.Category }},
		{"Status", func(p api.Post) string { return string(p.Status) }},
		{"Destaque", func(p api.Post) string { return yesNo(p.Featured) }},
		{"Popular", func(p api.Post) string { return yesNo(p.Popular) }},
		{"Data Publicação", func(p api.Post) string {
			if p.PublishedAt == nil {
				return ""
			}
			return date(*p.PublishedAt)
		}},
		{"Data Criação", func(p api.Post) string { return date(p.CreatedAt) }},
		{"Data Atualização", func(p api.Post) string { return date(p.UpdatedAt) }},
		{"Subtitulo", func(p api.Post) string { return p.Subtitle }},
		{"Descricao", func(p api.Post) string { return p.Description }},
		{"Corpo", func(p api.Post) string { return p.Body }},
		{"Imagem Capa", func(p api.Post) string { return p.CoverImage }},
	}
}

// LeadColumns returns the columns of leads_comunidade.csv.
func LeadColumns(loc *time.Location) []Column[api.Lead] {
	return []Column[api.Lead]{
		{"Nome", func(l api.Lead) string { return l.Name }},
		{"WhatsApp", func(l api.Lead) string { return l.WhatsApp }},
		{"Data de Cadastro", func(l api.Lead) string { return l.CreatedAt.In(loc).Format(longDateLayout) }},
	}
}

// MetadataColumns returns the columns of metadados.csv.
func MetadataColumns(loc *time.Location) []Column[Metadata] {
	return []Column[Metadata]{
		{"Data do Backup", func(m Metadata) string { return m.CreatedAt.In(loc).Format(longDateLayout) }},
		{"Total de Posts", func(m Metadata) string { return strconv.Itoa(m.PostsCount) }},
		{"Total de Leads", func(m Metadata) string { return strconv.Itoa(m.LeadsCount) }},
		{"Versão", func(Metadata) string { return FormatVersion }},
	}
}
