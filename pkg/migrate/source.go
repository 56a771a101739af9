package migrate

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed migrations/*.sql
var embedded embed.FS

const embeddedDir = "migrations"

// Source locates goose SQL files. A nil FS means the OS filesystem.
type Source struct {
	FS  fs.FS
	Dir string
}

// Embedded returns the migrations compiled into the binary.
func Embedded() Source {
	return Source{FS: embedded, Dir: embeddedDir}
}

// OnDisk returns a source rooted at dir on the local filesystem.
func OnDisk(dir string) Source {
	return Source{Dir: dir}
}

func (s Source) String() string {
	if s.FS == nil {
		return s.Dir
	}
	return "embedded:" + s.Dir
}

func (s Source) readDir() ([]fs.DirEntry, error) {
	if s.FS == nil {
		return os.ReadDir(s.Dir)
	}
	return fs.ReadDir(s.FS, s.Dir)
}

func (s Source) readFile(name string) ([]byte, error) {
	if s.FS == nil {
		return os.ReadFile(filepath.Join(s.Dir, name))
	}
	return fs.ReadFile(s.FS, s.Dir+"/"+name)
}
