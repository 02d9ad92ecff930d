// Package packaging builds the installable addon archive from a source tree.
package packaging

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	ManifestFile   = "blender_manifest.toml"
	DefaultVersion = "0.0.0"
	ArchivePrefix  = "clustta-blender-addon-"

	// Root directory inside the archive; Blender installs the addon under this name.
	addonRoot = "clustta"
)

// Files copied into the archive when present.
var DefaultFiles = []string{
	"__init__.py",
	"api_client.py",
	"helpers.py",
	"operators.py",
	"panels.py",
	"props.py",
	ManifestFile,
	"LICENSE",
}

// Directories copied recursively when present.
var DefaultDirs = []string{"assets"}

// Names never packaged. Entries may be glob patterns matched against the base name.
var DefaultExclude = []string{
	"__pycache__",
	".git",
	".gitignore",
	".vscode",
	"scripts",
	"dist",
	"build",
	"*.pyc",
	"*.pyo",
}

// Manifest is the subset of blender_manifest.toml the packager reads.
type Manifest struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// ReadManifest loads the manifest from dir. A missing version reads as DefaultVersion.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	return &m, nil
}

// Options selects what goes into the archive.
type Options struct {
	SourceDir string
	DistDir   string // defaults to SourceDir/dist
	Files     []string
	Dirs      []string
	Exclude   []string
}

// DefaultOptions packages the standard addon layout found in sourceDir.
func DefaultOptions(sourceDir string) Options {
	return Options{
		SourceDir: sourceDir,
		Files:     DefaultFiles,
		Dirs:      DefaultDirs,
		Exclude:   DefaultExclude,
	}
}

// Result describes a written archive.
type Result struct {
	Path    string
	Version string
	Entries []string // archive paths in write order
	Size    int64
}

// Package writes dist/clustta-blender-addon-<version>.zip. Listed files and
// directories that do not exist are skipped.
func Package(opts Options) (*Result, error) {
	if opts.SourceDir == "" {
		return nil, errors.New("source directory is required")
	}
	if opts.DistDir == "" {
		opts.DistDir = filepath.Join(opts.SourceDir, "dist")
	}

	m, err := ReadManifest(opts.SourceDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DistDir, 0755); err != nil {
		return nil, fmt.Errorf("create dist directory: %w", err)
	}
	res := &Result{
		Path:    filepath.Join(opts.DistDir, ArchivePrefix+m.Version+".zip"),
		Version: m.Version,
	}

	f, err := os.Create(res.Path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(f)

	if err := writeEntries(zw, opts, res); err != nil {
		zw.Close()
		f.Close()
		os.Remove(res.Path)
		return nil, err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return nil, err
	}
	res.Size = info.Size()
	return res, nil
}

func writeEntries(zw *zip.Writer, opts Options, res *Result) error {
	for _, name := range opts.Files {
		src := filepath.Join(opts.SourceDir, name)
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() || excluded(name, opts.Exclude) {
			continue
		}
		if err := addFile(zw, src, name, res); err != nil {
			return err
		}
	}

	for _, dir := range opts.Dirs {
		root := filepath.Join(opts.SourceDir, dir)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if excluded(d.Name(), opts.Exclude) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(opts.SourceDir, path)
			if err != nil {
				return err
			}
			return addFile(zw, path, rel, res)
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	return nil
}

func addFile(zw *zip.Writer, src, rel string, res *Result) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = addonRoot + "/" + filepath.ToSlash(rel)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	res.Entries = append(res.Entries, hdr.Name)
	return nil
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
