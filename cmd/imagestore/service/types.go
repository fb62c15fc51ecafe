package service

import "github.com/lyzr/imagestore/common/models"

// FileUpload is one uploaded binary as received from the client
type FileUpload struct {
	Data         []byte
	MimeType     string
	OriginalName string
}

// Fields carries the optional metadata sent alongside an upload.
// Zero Width/Height mean unknown. Tags may be a comma separated string,
// []string or []any. CustomJSON is parsed with ParseCustom.
type Fields struct {
	Width      int
	Height     int
	Alt        string
	Tags       any
	CustomJSON string
	Title      string
}

// BulkError reports one file that failed in a bulk upload
type BulkError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BulkResult is the outcome of BulkCreate in input order
type BulkResult struct {
	Results []models.ImageRecord `json:"results"`
	Errors  []BulkError          `json:"errors"`
}

// ListQuery selects and pages records
type ListQuery struct {
	Search string
	Tag    string
	Filter string // CEL expression over `image`
	Page   int
	Limit  int
}

// ListResult is one page of matching records. Total counts all matches.
type ListResult struct {
	Items []models.ImageRecord `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// Patch is a partial metadata update. Nil fields are left unchanged.
type Patch struct {
	Title  *string
	Alt    *string
	Tags   any // string, []string or []any; nil when absent
	Custom *map[string]any
}

// Pagination bounds
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)
