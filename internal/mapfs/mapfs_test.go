/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package mapfs

import (
	"errors"
	"io/fs"
	"slices"
	"testing"
)

func TestReadWrite(t *testing.T) {
	mfs := New()
	mfs.AddFile("/app/src/a.css", ".a{}", 0644)

	data, err := mfs.ReadFile("/app/src/a.css")
	if err != nil || string(data) != ".a{}" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}
	if _, err := mfs.ReadFile("/app/missing.css"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	buf := []byte("x")
	if err := mfs.WriteFile("/app/dist/main.js", buf, 0644); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'y'
	data, _ = mfs.ReadFile("/app/dist/main.js")
	if string(data) != "x" {
		t.Errorf("WriteFile must copy its input, got %q", data)
	}
	if mfs.Writes() != 1 {
		t.Errorf("Writes = %d", mfs.Writes())
	}
}

func TestWriteFileErrors(t *testing.T) {
	mfs := New()
	mfs.AddFile("/app/file", "", 0644)
	mfs.AddFile("/app/dir/child", "", 0644)

	if err := mfs.WriteFile("/app/file/nested", nil, 0644); err == nil {
		t.Error("expected an error writing below a file")
	}
	if err := mfs.WriteFile("/app/dir", nil, 0644); err == nil {
		t.Error("expected an error writing over a directory")
	}
	if err := mfs.MkdirAll("/app/file", 0755); err == nil {
		t.Error("expected an error creating a directory over a file")
	}
}

func TestStatAndFiles(t *testing.T) {
	mfs := New()
	mfs.AddFile("/app/src/b.js", "", 0644)
	mfs.AddFile("/app/src/a.js", "", 0644)
	if err := mfs.MkdirAll("/app/dist", 0755); err != nil {
		t.Fatal(err)
	}

	info, err := mfs.Stat("/app/src")
	if err != nil || !info.IsDir() {
		t.Errorf("Stat(/app/src) = %v, %v", info, err)
	}
	info, err = mfs.Stat("/app/dist")
	if err != nil || !info.IsDir() {
		t.Errorf("Stat(/app/dist) = %v, %v", info, err)
	}

	want := []string{"/app/src/a.js", "/app/src/b.js"}
	if got := mfs.Files(); !slices.Equal(got, want) {
		t.Errorf("Files = %v, want %v", got, want)
	}
}
