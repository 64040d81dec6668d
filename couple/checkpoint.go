/*
 * checkpoint.go, part of gomcmd.
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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

//Checkpoints centralizes the names of every per-iteration artifact, so the
//writers and the restart scanner can never disagree on the format. The
//names are a public contract: restart scanning relies on them to locate
//the highest completed iteration.
type Checkpoints struct {
	Dir string
}

//BeforeMD is the pre-MD particle/topology checkpoint of iteration i. Its
//existence marks the iteration's MC phase as complete.
func (C Checkpoints) BeforeMD(i int) string {
	return filepath.Join(C.Dir, fmt.Sprintf("%d.before_md.lmps", i))
}

//MDOut is the post-MD coordinate checkpoint of iteration i.
func (C Checkpoints) MDOut(i int) string {
	return filepath.Join(C.Dir, fmt.Sprintf("%d.md_out.xyz", i))
}

//MDLog is the MD engine log of iteration i.
func (C Checkpoints) MDLog(i int) string {
	return filepath.Join(C.Dir, fmt.Sprintf("%d.md.log", i))
}

//MDDump is the MD trajectory dump of iteration i.
func (C Checkpoints) MDDump(i int) string {
	return filepath.Join(C.Dir, fmt.Sprintf("%d.md.dump", i))
}

//MDName is the basename the MD adapter derives its working files from
//(input script, data file, hand-back file) for iteration i.
func (C Checkpoints) MDName(i int) string {
	return filepath.Join(C.Dir, fmt.Sprintf("%d.md", i))
}

//RunName is the MC run name of iteration i.
func (C Checkpoints) RunName(i int) string {
	return fmt.Sprintf("%d.gcmc", i)
}

//PropsFile is the MC properties file name of iteration i, relative to the
//simulation folder.
func (C Checkpoints) PropsFile(i int) string {
	return fmt.Sprintf("%d.gcmc_props.inp", i)
}

var beforeMDre = regexp.MustCompile(`^(\d+)\.before_md\.lmps$`)

//HighestComplete scans the checkpoint directory for the highest iteration
//index with a completed pre-MD checkpoint file. It returns 0 if there is
//none (including when the directory does not exist yet).
func (C Checkpoints) HighestComplete() (int, error) {
	entries, err := os.ReadDir(C.Dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, Error{ErrRestartScan, C.Dir, err.Error(), []string{"HighestComplete"}, true}
	}
	max := 0
	for _, e := range entries {
		m := beforeMDre.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if i > max {
			max = i
		}
	}
	return max, nil
}

//PurgePartial deletes the artifacts of incomplete iterations around the
//resumed index k: any stray next-iteration files and the partial MD
//artifacts of iteration k itself, which will be redone.
func (C Checkpoints) PurgePartial(k int) error {
	togo, err := filepath.Glob(filepath.Join(C.Dir, fmt.Sprintf("%d.*", k+1)))
	if err != nil {
		return Error{ErrRestartScan, C.Dir, err.Error(), []string{"PurgePartial"}, true}
	}
	md, err := filepath.Glob(filepath.Join(C.Dir, fmt.Sprintf("%d.md*", k)))
	if err != nil {
		return Error{ErrRestartScan, C.Dir, err.Error(), []string{"PurgePartial"}, true}
	}
	for _, f := range append(togo, md...) {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return Error{ErrRestartScan, f, err.Error(), []string{"PurgePartial"}, true}
		}
	}
	return nil
}
