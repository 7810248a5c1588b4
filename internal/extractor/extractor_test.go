package extractor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/mvp-joe/flowexport/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extractor.Run:
// - End-to-end: primary file holds the class, alias file imports it renamed
// - Un-annotated definitions are mirrored byte-for-byte, in source order
// - Test and __pycache__ directories are not extracted
// - Every output directory gets a package marker
// - Two runs over the same tree produce identical output
// - An output directory inside the source tree is never read back
// - A zero-argument export aborts before the output directory is touched
// - Configured merges fold a source file into a generated one
// - Circular cross-module aliases are reported
// - The formatter runs last, over the output directory

type recordingFormatter struct {
	dirs []string
	err  error
}

func (r *recordingFormatter) Format(ctx context.Context, dir string) error {
	r.dirs = append(r.dirs, dir)
	return r.err
}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.Default()
	cfg.SrcDir = filepath.Join(tmp, "oneflow", "python")
	cfg.OutDir = filepath.Join(tmp, "out")
	cfg.Workers = 2
	cfg.Format.Enabled = false
	return cfg, tmp
}

// snapshot reads every file under dir keyed by slash-separated relative path.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestExtractor_EndToEnd(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"framework/foo.py": dedent.Dedent(`
			import os

			@oneflow_export("a.c.Foo", "a.b.Foo")
			class Foo(object):
			    def __init__(self):
			        self.path = os.getcwd()

			@oneflow_export("a.b.make_foo")
			def make_foo():
			    return Foo()

			@staticmethod
			def helper():
			    return 1

			def other():
			    return 2
		`),
		"test/test_foo.py": "@oneflow_export(\"tested\")\ndef x():\n    pass\n",
	})

	formatter := &recordingFormatter{}
	ex, err := New(cfg, WithFormatter(formatter))
	require.NoError(t, err)

	result, err := ex.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, cfg.OutDir)

	assert.Equal(t, "import os\n\n"+
		"from oneflow.a.c import Foo\n\n"+
		"def make_foo():\n    return Foo()\n", files["oneflow/a/b.py"])

	assert.Equal(t, "import os\n\n"+
		"class Foo(object):\n    def __init__(self):\n        self.path = os.getcwd()\n", files["oneflow/a/c.py"])

	assert.Equal(t, "import os\n\n"+
		"@staticmethod\ndef helper():\n    return 1\n\n"+
		"def other():\n    return 2\n", files["oneflow/python/framework/foo.py"])

	// Test: Package markers everywhere, test directory skipped
	for _, marker := range []string{
		"__init__.py",
		"oneflow/__init__.py",
		"oneflow/a/__init__.py",
		"oneflow/python/__init__.py",
		"oneflow/python/framework/__init__.py",
	} {
		content, ok := files[marker]
		assert.True(t, ok, marker)
		assert.Empty(t, content, marker)
	}
	assert.NotContains(t, files, "oneflow/python/test/test_foo.py")

	assert.Equal(t, 1, result.SourceFiles)
	assert.Equal(t, 1, result.SkippedDirs)
	assert.Equal(t, 2, result.Exported)
	assert.Equal(t, 1, result.Aliases)
	assert.Equal(t, 3, result.Mirrored)
	assert.Equal(t, []string{"oneflow/a/b.py", "oneflow/a/c.py", "oneflow/python/framework/foo.py"}, result.Paths)

	assert.Equal(t, []string{cfg.OutDir}, formatter.dirs)
}

func TestExtractor_CrossPackageAlias(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"foo.py": "@oneflow_export(\"a.b.Foo\", \"a.c.Bar\")\nclass Foo:\n    pass\n",
	})

	ex, err := New(cfg)
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, cfg.OutDir)
	assert.Equal(t, "class Foo:\n    pass\n", files["oneflow/a/b.py"])
	assert.Equal(t, "from oneflow.a.b import Foo as Bar\n", files["oneflow/a/c.py"])
}

func TestExtractor_Deterministic(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	cfg.Workers = 8
	tree := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		tree["nn/"+name+".py"] = "import " + name + "\n\n" +
			"@oneflow_export(\"nn.shared\", \"" + name + "_alias\")\n" +
			"def " + name + "():\n    pass\n"
	}
	writeTree(t, cfg.SrcDir, tree)

	ex, err := New(cfg)
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.NoError(t, err)
	first := snapshot(t, cfg.OutDir)

	_, err = ex.Run(context.Background())
	require.NoError(t, err)
	second := snapshot(t, cfg.OutDir)

	assert.Equal(t, first, second)
	assert.Equal(t, "import a\nimport b\nimport c\nimport d\nimport e\nimport f\n\n"+
		"def a():\n    pass\n\ndef b():\n    pass\n\ndef c():\n    pass\n\n"+
		"def d():\n    pass\n\ndef e():\n    pass\n\ndef f():\n    pass\n", first["oneflow/nn.py"])
}

func TestExtractor_OutDirInsideSrcDir(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	cfg := config.Default()
	cfg.SrcDir = filepath.Join(tmp, "src")
	cfg.OutDir = filepath.Join(tmp, "src", "build")
	cfg.Workers = 2
	cfg.Format.Enabled = false
	writeTree(t, cfg.SrcDir, map[string]string{
		"foo.py": "@oneflow_export(\"a.b.Foo\", \"a.c.Bar\")\nclass Foo:\n    pass\n",
	})

	ex, err := New(cfg)
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.NoError(t, err)
	first := snapshot(t, cfg.OutDir)

	result, err := ex.Run(context.Background())
	require.NoError(t, err)
	second := snapshot(t, cfg.OutDir)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, result.SourceFiles)
	assert.Equal(t, []string{"oneflow/a/b.py", "oneflow/a/c.py"}, result.Paths)
}

func TestExtractor_MissingExportNameWritesNothing(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"good.py": "@oneflow_export(\"a.Good\")\nclass Good:\n    pass\n",
		"bad.py":  "@oneflow_export()\ndef bad():\n    pass\n",
	})
	writeTree(t, cfg.OutDir, map[string]string{"previous.py": "keep"})

	formatter := &recordingFormatter{}
	ex, err := New(cfg, WithFormatter(formatter))
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingExportName)

	assert.Equal(t, map[string]string{"previous.py": "keep"}, snapshot(t, cfg.OutDir))
	assert.Empty(t, formatter.dirs)
}

func TestExtractor_SyntaxErrorAborts(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{"bad.py": "class (:\n"})

	ex, err := New(cfg)
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	var syntaxErr *SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestExtractor_Merges(t *testing.T) {
	t.Parallel()

	cfg, tmp := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"tensor.py": "@oneflow_export(\"Tensor\")\nclass Tensor:\n    pass\n",
	})
	writeTree(t, tmp, map[string]string{
		"init.py": "import sys\n\n__version__ = \"0.1\"\n",
	})
	cfg.Merges = []config.MergeConfig{{From: filepath.Join(tmp, "init.py"), To: "oneflow/__init__.py"}}

	ex, err := New(cfg)
	require.NoError(t, err)
	result, err := ex.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)

	files := snapshot(t, cfg.OutDir)
	assert.Equal(t, "import sys\n\nclass Tensor:\n    pass\n\n__version__ = \"0.1\"\n", files["oneflow/__init__.py"])
}

func TestExtractor_MergeIntoUnknownFile(t *testing.T) {
	t.Parallel()

	cfg, tmp := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{"x.py": "x = 1\n"})
	writeTree(t, tmp, map[string]string{"init.py": "y = 2\n"})
	cfg.Merges = []config.MergeConfig{{From: filepath.Join(tmp, "init.py"), To: "oneflow/missing.py"}}

	ex, err := New(cfg)
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestExtractor_ReportsCycles(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"cycle.py": dedent.Dedent(`
			@oneflow_export("a.x.A", "b.y.A")
			class A:
			    pass

			@oneflow_export("b.y.B", "a.x.B")
			class B:
			    pass
		`),
	})

	ex, err := New(cfg)
	require.NoError(t, err)
	result, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"oneflow.a.x", "oneflow.b.y"}}, result.Cycles)
}

func TestExtractor_FormatterError(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{"x.py": "x = 1\n"})

	boom := assert.AnError
	ex, err := New(cfg, WithFormatter(&recordingFormatter{err: boom}))
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.OutDir = "/"

	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrUnsafeOutDir)
}
