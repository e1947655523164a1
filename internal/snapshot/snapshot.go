// Package snapshot exports every client with its phones to object storage
// as a YAML document and imports such documents back.
package snapshot

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/koustreak/clientbook/internal/clients"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/filestore"
	"github.com/koustreak/clientbook/internal/logger"
	"go.yaml.in/yaml/v3"
)

const (
	// Prefix is the key prefix all snapshots are stored under.
	Prefix = "snapshots/"

	contentType   = "application/yaml"
	keyTimeFormat = "20060102T150405.000Z"
	formatVersion = 1
)

// Document is the on-disk snapshot layout.
type Document struct {
	Version   int                    `yaml:"version"`
	CreatedAt time.Time              `yaml:"created_at"`
	Clients   []clients.ClientRecord `yaml:"clients"`
}

// Records is the part of the client store snapshots need.
type Records interface {
	ListClients(ctx context.Context) ([]clients.ClientRecord, error)
	Restore(ctx context.Context, records []clients.ClientRecord) (int, error)
}

// Service moves snapshots between a Records store and a filestore bucket.
type Service struct {
	files   filestore.Store
	bucket  string
	records Records
	log     *logger.Logger
	now     func() time.Time
}

// New returns a Service writing to bucket on files.
func New(files filestore.Store, bucket string, records Records, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Global()
	}
	return &Service{
		files:   files,
		bucket:  bucket,
		records: records,
		log:     log,
		now:     time.Now,
	}
}

// Key returns the object key of a snapshot taken at t.
func Key(t time.Time) string {
	return Prefix + "clients-" + t.UTC().Format(keyTimeFormat) + ".yaml"
}

// Export writes the current client list to a new snapshot object.
func (s *Service) Export(ctx context.Context) (*filestore.ObjectInfo, error) {
	records, err := s.records.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	doc := Document{
		Version:   formatVersion,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
		Clients:   records,
	}
	body, err := Encode(&doc)
	if err != nil {
		return nil, err
	}

	if err := s.files.EnsureBucket(ctx, s.bucket); err != nil {
		return nil, err
	}

	key := Key(doc.CreatedAt)
	if _, err := s.files.StatObject(ctx, s.bucket, key); err == nil {
		return nil, errs.Newf(errs.ErrKindConflict, "snapshot %s already exists", key)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	info, err := s.files.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), contentType)
	if err != nil {
		s.log.ErrorWith("snapshot upload failed", err, map[string]interface{}{"bucket": s.bucket})
		return nil, err
	}

	s.log.InfoWith("snapshot exported", map[string]interface{}{
		"key":     info.Key,
		"clients": len(records),
		"bytes":   info.Size,
	})
	return info, nil
}

// List returns stored snapshots, oldest first.
func (s *Service) List(ctx context.Context) ([]filestore.ObjectInfo, error) {
	objects, err := s.files.ListObjects(ctx, s.bucket, filestore.ListOptions{Prefix: Prefix, Recursive: true})
	if err != nil {
		return nil, err
	}
	out := objects[:0]
	for _, o := range objects {
		if !o.IsDir && strings.HasSuffix(o.Key, ".yaml") {
			out = append(out, o)
		}
	}
	return out, nil
}

// Import loads the snapshot at key (the newest one when key is empty) into
// the store and returns how many clients were added. The store must hold no
// clients. Client ids are reassigned on import. The import is all or
// nothing: a rejected record leaves the store empty.
func (s *Service) Import(ctx context.Context, key string) (int, error) {
	var err error
	if key == "" {
		if key, err = s.latest(ctx); err != nil {
			return 0, err
		}
	}

	doc, err := s.read(ctx, key)
	if err != nil {
		return 0, err
	}

	n, err := s.records.Restore(ctx, doc.Clients)
	if err != nil {
		s.log.ErrorWith("snapshot import failed", err, map[string]interface{}{"key": key})
		return 0, err
	}

	s.log.InfoWith("snapshot imported", map[string]interface{}{"key": key, "clients": n})
	return n, nil
}

func (s *Service) latest(ctx context.Context) (string, error) {
	snaps, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(snaps) == 0 {
		return "", errs.New(errs.ErrKindNotFound, "no snapshots stored")
	}
	return snaps[len(snaps)-1].Key, nil
}

func (s *Service) read(ctx context.Context, key string) (*Document, error) {
	obj, err := s.files.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read snapshot", err)
	}
	return Decode(raw)
}

// Encode renders doc as YAML.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to encode snapshot", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to encode snapshot", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a YAML snapshot and checks its version.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "malformed snapshot", err)
	}
	if doc.Version != formatVersion {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported snapshot version %d", doc.Version)
	}
	return &doc, nil
}
