/*
 * archive.go, part of gomcmd.
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
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

//archiveDump z-standard-compresses one iteration's trajectory dump in
//place (path -> path.zst, original removed). Trajectory dumps dominate the
//disk footprint of long workflows and are never read back by the loop. A
//missing dump is not an error: the MD settings may simply not request one.
func archiveDump(path string) error {
	in, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	defer in.Close()
	out, err := os.Create(path + ".zst")
	if err != nil {
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	enc, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	if err := out.Close(); err != nil {
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	if err := os.Remove(path); err != nil {
		return Error{ErrArchive, path, err.Error(), []string{"archiveDump"}, false}
	}
	return nil
}
