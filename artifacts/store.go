// Package artifacts stores uploaded resume files and hands out stable
// reference strings for them. The application recorder only ever sees the
// reference, never the bytes.
package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

type (
	Store struct {
		db *sql.DB
	}
)

const (
	maxNameLen = 100
)

func openArtifactDatabase(ctx context.Context, dir string) (*sql.DB, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store artifacts, cause %w", dir, err)
	}
	dbfile := path.Join(dir, "artifacts.db")
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%v?_writable_schema=false&_journal=wal&mode=rwc", dbfile))
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", dbfile, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to ping artifact store %v, cause %v", dbfile, err)
	}
	return conn, nil
}

func Open(ctx context.Context, dir string) (*Store, error) {
	conn, err := openArtifactDatabase(ctx, dir)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn}
	err = s.init(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to init artifact store at %v, cause %v", dir, err)
	}
	return s, nil
}

// Put stores one artifact and returns its reference. The reference embeds a
// nanosecond timestamp and a content hash, so two uploads of the same file
// name never collide and the original name survives in a sanitized form.
func (s *Store) Put(ctx context.Context, name, mimetype string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", EmptyArtifact{Name: name}
	}
	ref := fmt.Sprintf("%v-%x-%v", time.Now().UnixNano(), xxhash.Sum64(content), sanitizeName(name))
	_, err := s.db.ExecContext(ctx, `insert into artifacts(ref, name, mime_type, content, created_at) values (?, ?, ?, ?, ?)`,
		ref, name, mimetype, content, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("unable to store artifact %v, cause %w", name, err)
	}
	return ref, nil
}

func (s *Store) Copy(ctx context.Context, out io.Writer, ref string) (int64, string, error) {
	var content []byte
	var mt string
	err := s.db.QueryRowContext(ctx, `select mime_type, content from artifacts where ref = ?`, ref).Scan(&mt, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", NotFound{Ref: ref}
	} else if err != nil {
		return 0, "", fmt.Errorf("unable to load artifact %v, cause %w", ref, err)
	}
	sz, err := out.Write(content)
	if err != nil {
		return 0, "", fmt.Errorf("unable to copy artifact %v to destination, cause %w", ref, err)
	}
	return int64(sz), mt, nil
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, `/`))
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	cleaned := strings.Trim(string(out), "._")
	if len(cleaned) == 0 {
		cleaned = "resume"
	}
	if len(cleaned) > maxNameLen {
		cleaned = cleaned[len(cleaned)-maxNameLen:]
	}
	return cleaned
}

func (s *Store) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists artifacts(
			ref text not null primary key,
			name text not null,
			mime_type text not null,
			content blob not null,
			created_at timestamp not null
		)`,
	} {
		_, err := s.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
