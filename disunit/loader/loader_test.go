package loader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

const pingTOML = `
kind = "slash"
name = "ping"
description = "Replies with pong"
cooldown = 5
user_permissions = ["SendMessages"]

[experiment]
required = false

[[options]]
type = "string"
name = "message"
description = "What to echo"
`

const readyYAML = `
kind: event
name: ready
once: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     string
		wantKind unit.Kind
		wantErr  bool
	}{
		{name: "toml slash", path: "ping.toml", data: pingTOML, wantKind: unit.KindSlash},
		{name: "yaml event", path: "ready.yml", data: readyYAML, wantKind: unit.KindEvent},
		{name: "yaml context", path: "info.yaml", data: "kind: contextMenu\nname: info\ntype: user\n", wantKind: unit.KindContextMenu},
		{name: "unknown toml field", path: "x.toml", data: "kind = \"slash\"\nname = \"x\"\ncolour = 1\n", wantErr: true},
		{name: "unknown yaml field", path: "x.yaml", data: "kind: event\nname: x\ncooldown: 3\n", wantErr: true},
		{name: "missing kind", path: "x.toml", data: "name = \"x\"\n", wantErr: true},
		{name: "unknown kind", path: "x.toml", data: "kind = \"modal\"\n", wantErr: true},
		{name: "bad extension", path: "x.json", data: "{}", wantErr: true},
		{name: "broken toml", path: "x.toml", data: "kind = ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.path, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.DefinitionKind() != tt.wantKind {
				t.Errorf("Decode() kind = %v, want %v", got.DefinitionKind(), tt.wantKind)
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	def, err := Decode("ping.toml", []byte(pingTOML))
	require.NoError(t, err)

	slash, ok := def.(*unit.SlashDefinition)
	require.True(t, ok)
	assert.Equal(t, "ping", slash.Name)
	assert.Equal(t, 5, slash.Cooldown)
	assert.Equal(t, []string{"SendMessages"}, slash.UserPermissions)
	require.Len(t, slash.Options, 1)
	assert.Equal(t, "message", slash.Options[0].Name)
	require.NoError(t, slash.Validate())
}

func TestFileSourceList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "general", "ping.toml"), pingTOML)
	writeFile(t, filepath.Join(root, "ready.yml"), readyYAML)
	writeFile(t, filepath.Join(root, "general", "README.md"), "docs")
	writeFile(t, filepath.Join(root, ".trash", "old.toml"), pingTOML)

	paths, err := NewFileSource().List(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "general", "ping.toml"),
		filepath.Join(root, "ready.yml"),
	}, paths)

	_, err = NewFileSource().List(context.Background(), filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestLoaderCacheAndInvalidate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ping.toml")
	writeFile(t, path, pingTOML)

	l := New(NewFileSource(), 0)
	ctx := context.Background()

	first, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, l.Cached(path))

	writeFile(t, path, strings.Replace(pingTOML, "Replies with pong", "Replies with PONG", 1))

	cached, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, cached)
	assert.Equal(t, "Replies with pong", cached.(*unit.SlashDefinition).Description)

	l.Invalidate(path)
	assert.False(t, l.Cached(path))

	fresh, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Replies with PONG", fresh.(*unit.SlashDefinition).Description)
}

// gatedSource serves a FileSource but holds the first Read until released.
type gatedSource struct {
	Source
	reading chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSource) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := g.Source.Read(ctx, path)
	g.once.Do(func() {
		close(g.reading)
		<-g.release
	})
	return data, err
}

func TestLoaderInvalidateDuringRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ping.toml")
	writeFile(t, path, pingTOML)

	src := &gatedSource{Source: NewFileSource(), reading: make(chan struct{}), release: make(chan struct{})}
	l := New(src, 8)
	ctx := context.Background()

	done := make(chan unit.Definition)
	go func() {
		def, err := l.Load(ctx, path)
		assert.NoError(t, err)
		done <- def
	}()

	<-src.reading
	writeFile(t, path, strings.Replace(pingTOML, "Replies with pong", "Replies with PONG", 1))
	l.Invalidate(path)
	close(src.release)

	stale := <-done
	assert.Equal(t, "Replies with pong", stale.(*unit.SlashDefinition).Description)
	assert.False(t, l.Cached(path))

	fresh, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Replies with PONG", fresh.(*unit.SlashDefinition).Description)
	assert.True(t, l.Cached(path))
}

func TestLoaderPurgeDuringRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ready.yaml")
	writeFile(t, path, readyYAML)

	src := &gatedSource{Source: NewFileSource(), reading: make(chan struct{}), release: make(chan struct{})}
	l := New(src, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := l.Load(context.Background(), path)
		assert.NoError(t, err)
	}()

	<-src.reading
	l.Purge()
	close(src.release)
	<-done

	assert.False(t, l.Cached(path))
	assert.Zero(t, l.Len())
}

func TestLoaderErrors(t *testing.T) {
	root := t.TempDir()
	l := New(NewFileSource(), 8)
	ctx := context.Background()

	_, err := l.Load(ctx, filepath.Join(root, "missing.toml"))
	var ie *errs.ImportError
	require.True(t, errors.As(err, &ie))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(root, "bad.toml")
	writeFile(t, bad, "kind = \"slash\"\nname = \"bad\"\nbogus = true\n")
	_, err = l.Load(ctx, bad)
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.False(t, l.Cached(bad))
}

type fakeObjects struct {
	objects map[string]string
}

func (f *fakeObjects) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (f *fakeObjects) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestSpacesSource(t *testing.T) {
	client := &fakeObjects{objects: map[string]string{
		"bots/units/slash/general/ping.toml": pingTOML,
		"bots/units/slash/notes.txt":         "ignored",
		"bots/units/events/ready.yml":        readyYAML,
	}}
	src := NewSpacesSourceWithClient(client, "bucket", "/bots/")
	ctx := context.Background()

	keys, err := src.List(ctx, "units/slash")
	require.NoError(t, err)
	assert.Equal(t, []string{"bots/units/slash/general/ping.toml"}, keys)

	l := New(src, 4)
	def, err := l.Load(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, "ping", def.DefinitionName())

	_, err = l.Load(ctx, "bots/units/slash/missing.toml")
	var ie *errs.ImportError
	assert.True(t, errors.As(err, &ie))
}
