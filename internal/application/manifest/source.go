package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/modkit/internal/cachemanager"
	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/log"
)

// Digest identifies manifest content: "<format>:<sha256 hex>".
type Digest string

// Short returns the first 12 hex characters of the content hash.
func (d Digest) Short() string {
	_, sum, _ := strings.Cut(string(d), ":")
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

// DigestOf computes the digest of data in format.
func DigestOf(format Format, data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(string(format) + ":" + hex.EncodeToString(sum[:]))
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Parsed is the cached result of decoding one manifest.
type Parsed struct {
	Modules    []component.Descriptor
	Submodules []component.Descriptor
}

type parseInput struct {
	format   Format
	filename string
	data     []byte
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Cache stores parsed manifests by digest. Default: an in-memory cache.
	Cache cachemanager.CacheManager[Digest, *Parsed]
	// TTL of cached entries. Default: cachemanager.DefaultExpiration.
	TTL time.Duration
	// SkipCache parses on every enumeration.
	SkipCache bool
	// Sliding restarts an entry's TTL each time it is read.
	Sliding bool
	// Parse configures HCL evaluation.
	Parse ParseOptions
}

// Loader opens manifest files as component sources. Identical content is
// parsed once per TTL, however many times the file is reopened.
type Loader struct {
	cache *cachemanager.ReadThroughCache[Digest, *Parsed, parseInput]
	opts  ParseOptions
}

// NewLoader creates a Loader.
func NewLoader(opts LoaderOptions) *Loader {
	cache := opts.Cache
	if cache == nil {
		cache = cachemanager.NewInMemoryCacheManager[Digest, *Parsed]("manifests",
			cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}

	l := &Loader{opts: opts.Parse}
	l.cache = cachemanager.NewReadThroughCache(cache, l.parse, cachemanager.ReadThroughOptions{
		TTL:     ttl,
		Sliding: opts.Sliding,
		Bypass:  opts.SkipCache,
	})
	return l
}

// Stats reports how often enumerations were served from the cache.
func (l *Loader) Stats() cachemanager.Stats { return l.cache.Stats() }

func (l *Loader) parse(_ context.Context, in parseInput) (*Parsed, error) {
	f, err := Parse(in.format, in.filename, in.data, l.opts)
	if err != nil {
		return nil, err
	}
	mods, subs, err := f.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.filename, err)
	}
	log.Debug(log.CatManifest, "Parsed manifest", "path", in.filename, "modules", len(mods), "submodules", len(subs))
	return &Parsed{Modules: mods, Submodules: subs}, nil
}

// Open reads path and returns a source over its current content. Parsing is
// deferred to enumeration so a malformed manifest surfaces as a scan failure
// of this source only.
func (l *Loader) Open(path string) (*FileSource, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest paths come from config/flags
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return l.source(path, format, data), nil
}

// OpenBytes returns a source over in-memory manifest content.
func (l *Loader) OpenBytes(name string, format Format, data []byte) *FileSource {
	return l.source(name, format, data)
}

func (l *Loader) source(path string, format Format, data []byte) *FileSource {
	digest := DigestOf(format, data)
	return &FileSource{
		loader: l,
		path:   path,
		digest: digest,
		input:  parseInput{format: format, filename: path, data: data},
	}
}

// OpenAll opens every path. Paths that cannot be opened are returned as
// errors; the rest are still opened.
func (l *Loader) OpenAll(paths ...string) ([]component.Source, []error) {
	var (
		sources []component.Source
		errs    []error
	)
	for _, p := range paths {
		src, err := l.Open(p)
		if err != nil {
			log.ErrorErr(log.CatManifest, "Failed to open manifest", err, "path", p)
			errs = append(errs, err)
			continue
		}
		sources = append(sources, src)
	}
	return sources, errs
}

// FileSource is a component.Source backed by one manifest's content.
type FileSource struct {
	loader *Loader
	path   string
	digest Digest
	input  parseInput
}

var _ component.Source = (*FileSource)(nil)

// ID is "manifest:<path>@<digest prefix>".
func (s *FileSource) ID() string {
	return "manifest:" + s.path + "@" + s.digest.Short()
}

// Path returns the manifest path.
func (s *FileSource) Path() string { return s.path }

// Digest returns the content digest.
func (s *FileSource) Digest() Digest { return s.digest }

// Modules returns the declared modules.
func (s *FileSource) Modules(ctx context.Context) ([]component.Descriptor, error) {
	p, err := s.loader.cache.Get(ctx, s.digest, s.input)
	if err != nil {
		return nil, err
	}
	return append([]component.Descriptor(nil), p.Modules...), nil
}

// Submodules returns the declared submodules.
func (s *FileSource) Submodules(ctx context.Context) ([]component.Descriptor, error) {
	p, err := s.loader.cache.Get(ctx, s.digest, s.input)
	if err != nil {
		return nil, err
	}
	return append([]component.Descriptor(nil), p.Submodules...), nil
}
