package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/jsonhammer/jsonhammer/pkg/apperr"
	"github.com/jsonhammer/jsonhammer/pkg/assets"
	"github.com/jsonhammer/jsonhammer/pkg/uploader"
)

const (
	DefaultPath          = "settings.json"
	DefaultCopies        = 30
	DefaultOutputDir     = "out"
	DefaultMaxThreads    = 30
	DefaultUploadRetries = 3
)

type Settings struct {
	Template      *structpb.Struct
	Copies        int
	OutputDir     string
	MaxThreads    int
	UploadImage   bool
	UploadJSON    bool
	APIKey        string
	APISecret     string
	IPFSGateway   string
	AssetsDir     string
	Seed          int64
	UploadRetries int
	SentryDSN     string
}

// file mirrors the settings document. Pointers tell unset keys apart from
// zero values.
type file struct {
	Template      interface{} `json:"template" yaml:"template"`
	Copies        *int        `json:"copies" yaml:"copies"`
	OutputDir     *string     `json:"outputDir" yaml:"outputDir"`
	MaxThreads    *int        `json:"maxThreads" yaml:"maxThreads"`
	UploadImage   bool        `json:"uploadImage" yaml:"uploadImage"`
	UploadJSON    bool        `json:"uploadJson" yaml:"uploadJson"`
	APIKey        string      `json:"apiKey" yaml:"apiKey"`
	APISecret     string      `json:"apiSecret" yaml:"apiSecret"`
	IPFSGateway   string      `json:"ipfsgateway" yaml:"ipfsgateway"`
	AssetsDir     string      `json:"assetsDir" yaml:"assetsDir"`
	Seed          int64       `json:"seed" yaml:"seed"`
	UploadRetries *int        `json:"uploadRetries" yaml:"uploadRetries"`
	SentryDSN     string      `json:"sentryDsn" yaml:"sentryDsn"`
}

// Overrides come from the command line and win over the settings file.
type Overrides struct {
	Copies     *int
	OutputDir  *string
	MaxThreads *int
	Gateway    *string
	Seed       *int64
}

func invalid(path, msg, hint string, err error) error {
	return apperr.InvalidFormat(filepath.ToSlash(path), msg, hint, err)
}

// Load reads the settings document at path. YAML is used for .yaml and .yml
// files, JSON otherwise. Defaults fill every key that is not set.
func Load(fs afero.Fs, path string) (*Settings, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.NotFound(filepath.ToSlash(path), "Create a settings file next to your assets folder.")
		}
		return nil, invalid(path, "cannot read settings", "", err)
	}

	var raw file
	var numbers error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &raw); err == nil {
			var doc struct {
				Template yaml.Node `yaml:"template"`
			}
			if yaml.Unmarshal(data, &doc) == nil {
				numbers = assets.CheckYAMLNumbers("template", &doc.Template)
			}
		}
	default:
		if err = json.Unmarshal(data, &raw); err == nil {
			var doc struct {
				Template json.RawMessage `json:"template"`
			}
			if json.Unmarshal(data, &doc) == nil {
				numbers = assets.CheckJSONNumbers("template", doc.Template)
			}
		}
	}
	if err != nil {
		return nil, invalid(path, "cannot parse settings", "", err)
	}
	// the template is copied verbatim into every document
	if numbers != nil {
		return nil, invalid(path, "unsupported number", assets.InexactNumberHint, numbers)
	}

	s := &Settings{
		Copies:        DefaultCopies,
		OutputDir:     DefaultOutputDir,
		MaxThreads:    DefaultMaxThreads,
		UploadImage:   raw.UploadImage,
		UploadJSON:    raw.UploadJSON,
		APIKey:        raw.APIKey,
		APISecret:     raw.APISecret,
		IPFSGateway:   raw.IPFSGateway,
		AssetsDir:     raw.AssetsDir,
		Seed:          raw.Seed,
		UploadRetries: DefaultUploadRetries,
		SentryDSN:     raw.SentryDSN,
	}
	if raw.Copies != nil {
		s.Copies = *raw.Copies
	}
	if raw.OutputDir != nil {
		s.OutputDir = *raw.OutputDir
	}
	if raw.MaxThreads != nil {
		s.MaxThreads = *raw.MaxThreads
	}
	if raw.UploadRetries != nil {
		s.UploadRetries = *raw.UploadRetries
	}
	if s.IPFSGateway == "" {
		s.IPFSGateway = uploader.DefaultGateway
	}
	if s.AssetsDir == "" {
		s.AssetsDir = assets.DefaultRoot
	}

	if raw.Template == nil {
		return nil, invalid(path, "no template specified",
			"Make sure there is a field named template in your settings that contains your template info.", nil)
	}
	template, ok := raw.Template.(map[string]interface{})
	if !ok {
		return nil, invalid(path, "invalid template specified", "Make sure your template is a JSON object.", nil)
	}
	s.Template, err = structpb.NewStruct(template)
	if err != nil {
		return nil, invalid(path, "invalid template specified", "Make sure your template is a JSON object.", err)
	}
	return s, nil
}

func (s *Settings) Apply(o Overrides) {
	if o.Copies != nil {
		s.Copies = *o.Copies
	}
	if o.OutputDir != nil {
		s.OutputDir = *o.OutputDir
	}
	if o.MaxThreads != nil {
		s.MaxThreads = *o.MaxThreads
	}
	if o.Gateway != nil {
		s.IPFSGateway = *o.Gateway
	}
	if o.Seed != nil {
		s.Seed = *o.Seed
	}
}

// Validate checks the settings after overrides were applied.
func (s *Settings) Validate() error {
	switch {
	case s.Copies < 0:
		return invalid("copies", fmt.Sprintf("invalid number of copies %d", s.Copies), "Use zero or more copies.", nil)
	case s.MaxThreads < 1:
		return invalid("maxThreads", fmt.Sprintf("invalid number of threads %d", s.MaxThreads), "Use at least one thread.", nil)
	case s.OutputDir == "":
		return invalid("outputDir", "invalid output directory specified", "", nil)
	case s.UploadRetries < 0:
		return invalid("uploadRetries", fmt.Sprintf("invalid number of retries %d", s.UploadRetries), "", nil)
	}
	if s.UploadImage || s.UploadJSON {
		if s.APIKey == "" {
			return invalid("apiKey", "no API key specified",
				"Make sure there is a field named apiKey in your settings that contains your IPFS API key.", nil)
		}
		if s.APISecret == "" {
			return invalid("apiSecret", "no API secret specified",
				"Make sure there is a field named apiSecret in your settings that contains your IPFS API secret.", nil)
		}
	}
	return nil
}

func (s *Settings) UploaderOptions() uploader.Options {
	return uploader.Options{
		Gateway:   s.IPFSGateway,
		APIKey:    s.APIKey,
		APISecret: s.APISecret,
		RetryMax:  s.UploadRetries,
	}
}
