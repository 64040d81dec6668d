/*
 * checkpoint_test.go, part of gomcmd.
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
	"os"
	"path/filepath"
	"testing"
)

func touch(Te *testing.T, path string) {
	Te.Helper()
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		Te.Fatal(err)
	}
}

func TestCheckpointNames(Te *testing.T) {
	ck := Checkpoints{Dir: "sim"}
	cases := map[string]string{
		ck.BeforeMD(3): filepath.Join("sim", "3.before_md.lmps"),
		ck.MDOut(3):    filepath.Join("sim", "3.md_out.xyz"),
		ck.MDLog(3):    filepath.Join("sim", "3.md.log"),
		ck.MDDump(3):   filepath.Join("sim", "3.md.dump"),
		ck.MDName(3):   filepath.Join("sim", "3.md"),
	}
	for got, want := range cases {
		if got != want {
			Te.Errorf("got %q, want %q", got, want)
		}
	}
	//the MC names are relative to the simulation folder
	if ck.RunName(3) != "3.gcmc" {
		Te.Errorf("run name: %q", ck.RunName(3))
	}
	if ck.PropsFile(3) != "3.gcmc_props.inp" {
		Te.Errorf("props file: %q", ck.PropsFile(3))
	}
}

func TestHighestComplete(Te *testing.T) {
	ck := Checkpoints{Dir: "test/nonexistent"}
	k, err := ck.HighestComplete()
	if err != nil || k != 0 {
		Te.Errorf("a missing folder should scan as 0, got %d (%v)", k, err)
	}
	dir := "test/scan"
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		Te.Fatal(err)
	}
	ck = Checkpoints{Dir: dir}
	k, err = ck.HighestComplete()
	if err != nil || k != 0 {
		Te.Errorf("an empty folder should scan as 0, got %d (%v)", k, err)
	}
	touch(Te, ck.BeforeMD(1))
	touch(Te, ck.BeforeMD(2))
	touch(Te, ck.BeforeMD(10)) //numeric, not lexical order
	touch(Te, ck.MDLog(11))    //an MD log alone does not complete an iteration
	touch(Te, filepath.Join(dir, "notes.before_md.lmps.bak"))
	k, err = ck.HighestComplete()
	if err != nil {
		Te.Fatal(err)
	}
	if k != 10 {
		Te.Errorf("expected 10, got %d", k)
	}
}

func TestPurgePartial(Te *testing.T) {
	dir := "test/purge"
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		Te.Fatal(err)
	}
	ck := Checkpoints{Dir: dir}
	touch(Te, ck.BeforeMD(3))
	touch(Te, ck.MDLog(3))
	touch(Te, ck.MDDump(3))
	touch(Te, ck.MDOut(3))
	touch(Te, ck.BeforeMD(4))
	touch(Te, filepath.Join(dir, ck.PropsFile(4)))
	if err := ck.PurgePartial(3); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(ck.BeforeMD(3)); err != nil {
		Te.Error("the resumed iteration's pre-MD checkpoint must survive the purge")
	}
	for _, gone := range []string{ck.MDLog(3), ck.MDDump(3), ck.MDOut(3), ck.BeforeMD(4), filepath.Join(dir, ck.PropsFile(4))} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			Te.Errorf("%s should have been purged", gone)
		}
	}
}
