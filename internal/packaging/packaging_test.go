package packaging

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ManifestFile: "schema_version = \"1.0.0\"\nid = \"clustta\"\nname = \"Clustta\"\nversion = \"1.4.2\"\n",
	})

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "clustta", m.ID)
	assert.Equal(t, "1.4.2", m.Version)
}

func TestReadManifest_DefaultVersion(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{ManifestFile: "id = \"clustta\"\n"})

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, m.Version)
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.Error(t, err)
}

func TestPackage(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ManifestFile:                  "version = \"0.3.0\"\n",
		"__init__.py":                 "bl_info = {}\n",
		"api_client.py":               "# client\n",
		"notes.txt":                   "not listed\n",
		"assets/icons/checkpoint.png": "png",
		"assets/__pycache__/x.pyc":    "bytecode",
		"assets/old.pyc":              "bytecode",
		"scripts/package.py":          "# excluded\n",
	})

	res, err := Package(DefaultOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dist", "clustta-blender-addon-0.3.0.zip"), res.Path)
	assert.Equal(t, "0.3.0", res.Version)
	assert.Positive(t, res.Size)

	zr, err := zip.OpenReader(res.Path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"clustta/__init__.py",
		"clustta/api_client.py",
		"clustta/blender_manifest.toml",
		"clustta/assets/icons/checkpoint.png",
	}, names)
	assert.Equal(t, names, res.Entries)
}

func TestPackage_CustomDistAndExclude(t *testing.T) {
	dir := t.TempDir()
	dist := filepath.Join(t.TempDir(), "out")
	writeTree(t, dir, map[string]string{
		ManifestFile:      "version = \"2.0.0\"\n",
		"props.py":        "# props\n",
		"panels.py":       "# panels\n",
		"assets/logo.svg": "<svg/>",
	})

	opts := DefaultOptions(dir)
	opts.DistDir = dist
	opts.Exclude = append(opts.Exclude, "panels.py", "*.svg")

	res, err := Package(opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dist, "clustta-blender-addon-2.0.0.zip"), res.Path)
	assert.Equal(t, []string{"clustta/props.py", "clustta/blender_manifest.toml"}, res.Entries)
}

func TestPackage_RequiresManifest(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"__init__.py": ""})

	_, err := Package(DefaultOptions(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read manifest")
	assert.NoDirExists(t, filepath.Join(dir, "dist"))
}

func TestPackage_RequiresSourceDir(t *testing.T) {
	_, err := Package(Options{})
	assert.Error(t, err)
}
