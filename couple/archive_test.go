/*
 * archive_test.go, part of gomcmd.
 *
 * Copyright 2022 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package couple

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestArchiveDump(Te *testing.T) {
	dir := "test/arch"
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		Te.Fatal(err)
	}
	ck := Checkpoints{Dir: dir}
	payload := strings.Repeat("ITEM: TIMESTEP\n1000\nITEM: ATOMS id x y z\n1 0.1 0.2 0.3\n", 200)
	if err := os.WriteFile(ck.MDDump(5), []byte(payload), 0644); err != nil {
		Te.Fatal(err)
	}
	if err := archiveDump(ck.MDDump(5)); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(ck.MDDump(5)); !os.IsNotExist(err) {
		Te.Error("the original dump must be removed after archiving")
	}
	f, err := os.Open(ck.MDDump(5) + ".zst")
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		Te.Fatal(err)
	}
	defer dec.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, dec.IOReadCloser()); err != nil {
		Te.Fatal(err)
	}
	if out.String() != payload {
		Te.Error("the archived dump does not decompress to the original")
	}
}

func TestArchiveMissingDump(Te *testing.T) {
	if err := archiveDump("test/arch/does_not_exist.dump"); err != nil {
		Te.Error("a run without a dump is not an archiving error")
	}
}
