package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gutenberg-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// HarvestConfig holds settings for the harvest pipeline.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// NumBooks is the number of books to harvest (default 100).
	NumBooks int `json:"num_books" yaml:"num_books"`

	// Language filters the Gutendex listing (default "en").
	Language string `json:"language" yaml:"language"`

	// OutputDir is the storage root (contains books/, metadata/).
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// APIBase is the Gutendex listing endpoint.
	APIBase string `json:"api_base" yaml:"api_base"`

	// TextURLTemplate builds a book's plain-text URL; "{id}" is replaced
	// with the ebook number.
	TextURLTemplate string `json:"text_url_template" yaml:"text_url_template"`

	// PageDelay is the pause after each listing page (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// BookDelay is the pause between consecutive books (default 2s).
	BookDelay time.Duration `json:"book_delay" yaml:"book_delay"`

	// MarkersFile optionally points at a YAML file of boilerplate patterns.
	MarkersFile string `json:"markers_file,omitempty" yaml:"markers_file,omitempty"`
}

// PublishConfig holds settings for the publish pipeline.
type PublishConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the storage root written by the harvester.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// BaseURL is the InvenioRDM instance (e.g. "https://127.0.0.1:5000").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// TokenFile holds the bearer token, read verbatim.
	TokenFile string `json:"token_file" yaml:"token_file"`

	// Limit caps the number of books or records processed; 0 means all.
	Limit int `json:"limit" yaml:"limit"`

	// Update selects the update workflow instead of publishing new records.
	Update bool `json:"update" yaml:"update"`

	// RecordDelay is the pause between consecutive books or records (default 1s).
	RecordDelay time.Duration `json:"record_delay" yaml:"record_delay"`

	// PageDelay is the pause between record listing pages (default 500ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// PageSize is the record listing page size (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Insecure disables TLS certificate verification for self-signed
	// development instances.
	Insecure bool `json:"insecure" yaml:"insecure"`

	// FallbackYear is the publication date used when the auxiliary CSV has
	// no entry for a book (default "1900").
	FallbackYear string `json:"fallback_year" yaml:"fallback_year"`
}
