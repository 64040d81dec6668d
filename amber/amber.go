/*
 * amber.go, part of gomcmd.
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

//In order to use this package you need the antechamber and parmchk2
//programs from AmberTools. Please cite the Amber references if you use
//them.

//Package amber drives the external atom-typing/charge-assignment tool
//(antechamber) and the missing-parameter checker (parmchk2), and reconciles
//their output against an in-memory force-field registry.
package amber

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	mcmd "github.com/rmera/gomcmd"
)

const (
	scratchPDB = "gomcmd.tmp.pdb"
	scratchAC  = "gomcmd.tmp.ac"
)

//Handle drives one antechamber invocation at a time. The zero value is not
//usable; get one with NewHandle.
type Handle struct {
	command string
	checker string
}

//NewHandle returns a Handle with the antechamber command taken from the
//ANTECHAMBER_EXEC environment variable (falling back to "antechamber" in
//the PATH) and parmchk2 as the parameter checker.
func NewHandle() *Handle {
	h := new(Handle)
	h.SetDefaults()
	return h
}

func (O *Handle) SetDefaults() {
	O.command = os.Getenv("ANTECHAMBER_EXEC")
	if O.command == "" {
		O.command = "antechamber"
	}
	O.checker = "parmchk2"
}

//SetCommand sets the antechamber executable.
func (O *Handle) SetCommand(name string) {
	O.command = name
}

//SetChecker sets the missing-parameter checker executable.
func (O *Handle) SetChecker(name string) {
	O.checker = name
}

//Cleanup removes the scratch files left behind by antechamber and by this
//package. Removal failures are logged and otherwise ignored: a stale
//scratch file is not worth aborting a run over.
func (O *Handle) Cleanup() {
	fnames := []string{scratchPDB, scratchAC, "ATOMTYPE.INF"}
	if extra, err := filepath.Glob("ANTECHAMBER*"); err == nil {
		fnames = append(fnames, extra...)
	}
	for _, fname := range fnames {
		if err := os.Remove(fname); err != nil && !os.IsNotExist(err) {
			log.Printf("amber: problem removing %s during cleanup: %v", fname, err)
		}
	}
}

//run serializes s to the scratch structural file and invokes antechamber
//with the given mode flag ("-c" for charge derivation, "-at" for atom
//typing) and method/scheme name.
func (O *Handle) run(s *mcmd.System, modeflag, method string) error {
	if err := writePDB(scratchPDB, s); err != nil {
		return errDecorate(err, "run")
	}
	com := fmt.Sprintf("%s -fi pdb -i %s -fo ac -o %s %s %s", O.command, scratchPDB, scratchAC, modeflag, method)
	command := exec.Command("sh", "-c", com)
	if err := command.Run(); err != nil {
		return Error{ErrNotRunning, scratchPDB, err.Error(), []string{"exec.Run", "run"}, true}
	}
	return nil
}

//CalcCharges invokes the external charge-derivation tool with the chosen
//method (e.g. "bcc" for AM1-BCC) and sets the charge of every particle of
//s in place, matching output rows to particle tags by position. If cleanup
//is true the scratch files are removed afterwards.
func (O *Handle) CalcCharges(s *mcmd.System, method string, cleanup bool) error {
	if err := O.run(s, "-c", method); err != nil {
		return errDecorate(err, "CalcCharges")
	}
	if err := readCharges(s, scratchAC); err != nil {
		return errDecorate(err, "CalcCharges")
	}
	if cleanup {
		O.Cleanup()
	}
	return nil
}

//readCharges parses the tabular .ac output and sets particle charges.
func readCharges(s *mcmd.System, acpath string) error {
	rows, err := readACRows(acpath)
	if err != nil {
		return errDecorate(err, "readCharges")
	}
	for _, r := range rows {
		s.Particle(r.tag).Charge = r.charge
	}
	return nil
}

//AssignTypes invokes the external typing tool with the chosen naming scheme
//and binds every particle of s to a particle type, following the fallback
//policy described in the package documentation: system registry first, then
//the fallback force field ff (cloning hits into the system), with a
//scheme-specific deprecated-alias substitution and one-time warnings for
//anything still missing. With no fallback force field, an unknown type is a
//hard resolution failure for that particle only; the rest of the system is
//still processed. The returned error, if any, lists the unresolved
//particles.
func (O *Handle) AssignTypes(s *mcmd.System, scheme string, ff *mcmd.Forcefield) error {
	if err := O.run(s, "-at", scheme); err != nil {
		return errDecorate(err, "AssignTypes")
	}
	return assignFromAC(s, scheme, ff, scratchAC)
}

//deprecatedAliases maps, per typing scheme, type names the tool still
//emits to their usable successor. Only the named scheme gets the
//substitution: the same bare name under any other scheme is left alone.
var deprecatedAliases = map[string]map[string]string{
	"gaff2": {
		"c5": "c3",
		"c6": "c3",
	},
}

//assignFromAC does the reconciliation proper, from an already-produced .ac
//file. Split out from AssignTypes so the policy can be exercised without
//the external tool.
func assignFromAC(s *mcmd.System, scheme string, ff *mcmd.Forcefield, acpath string) error {
	rows, err := readACRows(acpath)
	if err != nil {
		return errDecorate(err, "assignFromAC")
	}
	aliasWarned := false
	snapshotWritten := false
	missingWarned := make(map[string]bool)
	var unresolved []string
	var missingNames []string
	for _, r := range rows {
		p := s.Particle(r.tag)
		typeName := r.typeName
		if t := s.Type(typeName); t != nil {
			p.Type = t
			continue
		}
		if ff == nil {
			//hard failure for this particle; keep going with the rest
			log.Printf("amber: cannot find type %s for particle %d in system and no fallback forcefield was given", typeName, r.tag)
			unresolved = append(unresolved, fmt.Sprintf("%d:%s", r.tag, typeName))
			continue
		}
		t := ff.Type(typeName)
		if t == nil {
			if succ, ok := deprecatedAliases[scheme][typeName]; ok {
				if !aliasWarned {
					log.Printf("amber: reading type %s, writing type %s: %s is deprecated under scheme %s", typeName, succ, typeName, scheme)
					aliasWarned = true
				}
				t = ff.Type(succ)
			}
		}
		if t == nil {
			if !missingWarned[typeName] {
				log.Printf("amber: atom type %s was not found in %s", typeName, scheme)
				missingWarned[typeName] = true
				missingNames = append(missingNames, typeName)
			}
			if !snapshotWritten {
				log.Printf("amber: writing %s; inspect it for issues due to the missing types", MissingTypesFile)
				if werr := mcmd.WriteDiagnostic(MissingTypesFile, s, missingNames); werr != nil {
					log.Printf("amber: could not write %s: %v", MissingTypesFile, werr)
				}
				snapshotWritten = true
			}
			continue
		}
		p.Type = s.AddType(t.Copy())
	}
	//the snapshot is written before all missing names are known, so refresh
	//the comment line once the whole table is processed
	if snapshotWritten {
		if werr := mcmd.WriteDiagnostic(MissingTypesFile, s, missingNames); werr != nil {
			log.Printf("amber: could not rewrite %s: %v", MissingTypesFile, werr)
		}
	}
	if len(unresolved) > 0 {
		return Error{ErrUnresolved, acpath, strings.Join(unresolved, " "), []string{"assignFromAC"}, false}
	}
	return nil
}

//MissingTypesFile is where AssignTypes writes the diagnostic structural
//snapshot when it meets types absent from both the system and the fallback
//force field.
const MissingTypesFile = "Missing_Types.xyz"

//CheckParams drives the missing-parameter checker on the last typing
//result, producing a parameter-gap report for the given scheme.
func (O *Handle) CheckParams(scheme, report string) error {
	if report == "" {
		report = "missing_ff_params.frcmod"
	}
	com := fmt.Sprintf("%s -i %s -f ac -o %s -s %s", O.checker, scratchAC, report, scheme)
	command := exec.Command("sh", "-c", com)
	if err := command.Run(); err != nil {
		return Error{ErrNotRunning, scratchAC, err.Error(), []string{"exec.Run", "CheckParams"}, true}
	}
	return nil
}

//acRow is one ATOM row of the tool's tabular output.
type acRow struct {
	tag      int
	charge   float64
	typeName string
}

//readACRows parses the ATOM rows of an .ac file. The first two lines are
//headers; rows are read until the first non-ATOM line.
func readACRows(path string) ([]acRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{ErrNoOutput, path, err.Error(), []string{"readACRows"}, true}
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for i := 0; i < 2; i++ {
		if !scanner.Scan() {
			return nil, Error{ErrNoOutput, path, "truncated header", []string{"readACRows"}, true}
		}
	}
	var rows []acRow
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "ATOM" {
			break
		}
		if len(fields) < 4 {
			return nil, Error{ErrNoOutput, path, "short ATOM row: " + scanner.Text(), []string{"readACRows"}, true}
		}
		var r acRow
		r.tag, err = strconv.Atoi(fields[1])
		if err != nil {
			return nil, Error{ErrNoOutput, path, "bad tag in ATOM row: " + scanner.Text(), []string{"readACRows"}, true}
		}
		r.charge, err = strconv.ParseFloat(fields[len(fields)-2], 64)
		if err != nil {
			return nil, Error{ErrNoOutput, path, "bad charge in ATOM row: " + scanner.Text(), []string{"readACRows"}, true}
		}
		r.typeName = fields[len(fields)-1]
		rows = append(rows, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, Error{ErrNoOutput, path, err.Error(), []string{"readACRows"}, true}
	}
	if len(rows) == 0 {
		return nil, Error{ErrNoOutput, path, "no ATOM rows found", []string{"readACRows"}, true}
	}
	return rows, nil
}

//writePDB writes the minimal HETATM records the typing tool needs: tag,
//element-derived atom name and coordinates.
func writePDB(path string, s *mcmd.System) error {
	f, err := os.Create(path)
	if err != nil {
		return Error{ErrCantInput, path, err.Error(), []string{"writePDB"}, true}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, p := range s.Particles {
		name := p.Name
		if name == "" {
			name = p.Elem
		}
		fmt.Fprintf(w, "HETATM%5d %-4s UNL     1    %8.3f%8.3f%8.3f  1.00  0.00          %2s\n",
			p.Tag, name, p.X, p.Y, p.Z, p.Elem)
	}
	fmt.Fprintf(w, "END\n")
	if err := w.Flush(); err != nil {
		return Error{ErrCantInput, path, err.Error(), []string{"writePDB"}, true}
	}
	return nil
}
