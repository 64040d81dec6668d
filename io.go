/*
 * io.go, part of gomcmd.
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

package mcmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//The checkpoint formats here is the minimal subset both engines agree on:
//a LAMMPS data file with Masses, Pair Coeffs and full-style Atoms for the
//pre-MD hand-off, and plain XYZ for the post-MD coordinates. Type names
//ride along as comments in the Masses section so a round-trip preserves the
//registry keys.

//WriteLAMMPS writes s as a LAMMPS data file containing the box bounds, the
//Masses and Pair Coeffs sections (with type names as trailing comments) and
//a full-style Atoms section.
func WriteLAMMPS(path string, s *System) error {
	if s.Box == nil {
		return CError{"mcmd: cannot write a LAMMPS data file for a system without a box", []string{"WriteLAMMPS"}}
	}
	f, err := os.Create(path)
	if err != nil {
		return CError{"mcmd: " + err.Error(), []string{"WriteLAMMPS"}}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "LAMMPS data file written by gomcmd\n\n")
	fmt.Fprintf(w, "%d atoms\n", s.Len())
	fmt.Fprintf(w, "%d atom types\n\n", s.NTypes())
	fmt.Fprintf(w, "%.8f %.8f xlo xhi\n", s.Box.Lo[0], s.Box.Hi[0])
	fmt.Fprintf(w, "%.8f %.8f ylo yhi\n", s.Box.Lo[1], s.Box.Hi[1])
	fmt.Fprintf(w, "%.8f %.8f zlo zhi\n\n", s.Box.Lo[2], s.Box.Hi[2])
	names := s.TypeNames()
	fmt.Fprintf(w, "Masses\n\n")
	for i, n := range names {
		fmt.Fprintf(w, "%d %.6f  # %s\n", i+1, s.Type(n).Mass, n)
	}
	fmt.Fprintf(w, "\nPair Coeffs\n\n")
	for i, n := range names {
		t := s.Type(n)
		fmt.Fprintf(w, "%d %.6f %.6f  # %s\n", i+1, t.Epsilon, t.Sigma, n)
	}
	fmt.Fprintf(w, "\nAtoms  # full\n\n")
	for _, p := range s.Particles {
		ti := 0
		if p.Type != nil {
			ti = s.typeIndex(p.Type.Name)
		}
		fmt.Fprintf(w, "%d %d %d %.6f %.8f %.8f %.8f\n", p.Tag, p.MolID, ti, p.Charge, p.X, p.Y, p.Z)
	}
	if err := w.Flush(); err != nil {
		return CError{"mcmd: " + err.Error(), []string{"WriteLAMMPS"}}
	}
	return nil
}

//ReadLAMMPS reads back a data file written by WriteLAMMPS (or the hand-back
//file written by the MD engine's write_data command, of which it parses the
//same subset). Type names are recovered from the Masses comments; a data
//file without them gets numeric type names.
func ReadLAMMPS(path string) (*System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CError{"mcmd: " + err.Error(), []string{"ReadLAMMPS"}}
	}
	defer f.Close()
	s := NewSystem()
	s.Box = new(Box)
	var typesByIndex []*ParticleType
	section := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if lineno == 1 {
			continue //title line
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "Masses"):
			section = "Masses"
			continue
		case strings.HasPrefix(trimmed, "Pair Coeffs"):
			section = "Pair Coeffs"
			continue
		case strings.HasPrefix(trimmed, "Atoms"):
			section = "Atoms"
			continue
		case strings.HasPrefix(trimmed, "Velocities"), strings.HasPrefix(trimmed, "Bonds"):
			//written by the engine, not needed for the hand-off
			section = "skip"
			continue
		}
		fields := strings.Fields(trimmed)
		switch section {
		case "":
			if err := readLAMMPSHeader(s, &typesByIndex, trimmed, fields); err != nil {
				return nil, errDecorate(err, "ReadLAMMPS")
			}
		case "Masses":
			i, err := strconv.Atoi(fields[0])
			if err != nil || i < 1 || i > len(typesByIndex) {
				return nil, CError{fmt.Sprintf("mcmd: %s:%d: bad Masses entry", path, lineno), []string{"ReadLAMMPS"}}
			}
			t := typesByIndex[i-1]
			t.Mass, _ = strconv.ParseFloat(fields[1], 64)
			if name, ok := trailingComment(trimmed); ok {
				t.Name = name
			}
		case "Pair Coeffs":
			i, err := strconv.Atoi(fields[0])
			if err != nil || i < 1 || i > len(typesByIndex) {
				return nil, CError{fmt.Sprintf("mcmd: %s:%d: bad Pair Coeffs entry", path, lineno), []string{"ReadLAMMPS"}}
			}
			t := typesByIndex[i-1]
			t.Epsilon, _ = strconv.ParseFloat(fields[1], 64)
			t.Sigma, _ = strconv.ParseFloat(fields[2], 64)
		case "Atoms":
			if len(fields) < 7 {
				return nil, CError{fmt.Sprintf("mcmd: %s:%d: short Atoms entry", path, lineno), []string{"ReadLAMMPS"}}
			}
			p := new(Particle)
			p.Tag, _ = strconv.Atoi(fields[0])
			p.MolID, _ = strconv.Atoi(fields[1])
			ti, _ := strconv.Atoi(fields[2])
			p.Charge, _ = strconv.ParseFloat(fields[3], 64)
			p.X, _ = strconv.ParseFloat(fields[4], 64)
			p.Y, _ = strconv.ParseFloat(fields[5], 64)
			p.Z, _ = strconv.ParseFloat(fields[6], 64)
			if ti >= 1 && ti <= len(typesByIndex) {
				p.Type = typesByIndex[ti-1]
				p.Elem = p.Type.Elem
			}
			if p.Tag < 1 {
				return nil, CError{fmt.Sprintf("mcmd: %s:%d: bad particle tag %d", path, lineno, p.Tag), []string{"ReadLAMMPS"}}
			}
			for len(s.Particles) < p.Tag {
				s.Particles = append(s.Particles, nil)
			}
			s.Particles[p.Tag-1] = p
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, CError{"mcmd: " + err.Error(), []string{"ReadLAMMPS"}}
	}
	for i, p := range s.Particles {
		if p == nil {
			return nil, CError{fmt.Sprintf("mcmd: %s: particle tags are not contiguous (missing %d)", path, i+1), []string{"ReadLAMMPS"}}
		}
	}
	for _, t := range typesByIndex {
		s.AddType(t)
	}
	//re-bind the particles to the registered records
	for _, p := range s.Particles {
		if p.Type != nil {
			p.Type = s.AddType(p.Type)
		}
	}
	return s, nil
}

func readLAMMPSHeader(s *System, typesByIndex *[]*ParticleType, line string, fields []string) error {
	switch {
	case strings.HasSuffix(line, "atoms"):
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return CError{"mcmd: bad atoms count: " + line, []string{"readLAMMPSHeader"}}
		}
		s.Particles = make([]*Particle, 0, n)
	case strings.HasSuffix(line, "atom types"):
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return CError{"mcmd: bad atom types count: " + line, []string{"readLAMMPSHeader"}}
		}
		*typesByIndex = make([]*ParticleType, n)
		for i := range *typesByIndex {
			(*typesByIndex)[i] = &ParticleType{Name: strconv.Itoa(i + 1)}
		}
	case strings.HasSuffix(line, "xlo xhi"):
		s.Box.Lo[0], _ = strconv.ParseFloat(fields[0], 64)
		s.Box.Hi[0], _ = strconv.ParseFloat(fields[1], 64)
	case strings.HasSuffix(line, "ylo yhi"):
		s.Box.Lo[1], _ = strconv.ParseFloat(fields[0], 64)
		s.Box.Hi[1], _ = strconv.ParseFloat(fields[1], 64)
	case strings.HasSuffix(line, "zlo zhi"):
		s.Box.Lo[2], _ = strconv.ParseFloat(fields[0], 64)
		s.Box.Hi[2], _ = strconv.ParseFloat(fields[1], 64)
	}
	//unrecognized header lines (bond counts etc) are forwarded material for
	//the engines, not ours to validate
	return nil
}

//trailingComment returns the text after a "#" in the line, trimmed, if any.
func trailingComment(line string) (string, bool) {
	i := strings.Index(line, "#")
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}

//element returns the best available element label for an XYZ record.
func element(p *Particle) string {
	switch {
	case p.Elem != "":
		return p.Elem
	case p.Type != nil && p.Type.Elem != "":
		return p.Type.Elem
	case p.Name != "":
		return p.Name
	}
	return "X"
}

//WriteXYZ writes the system's coordinates as a single-frame XYZ file with
//the given comment line.
func WriteXYZ(path string, s *System, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return CError{"mcmd: " + err.Error(), []string{"WriteXYZ"}}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d\n%s\n", s.Len(), comment)
	for _, p := range s.Particles {
		fmt.Fprintf(w, "%-4s %12.6f %12.6f %12.6f\n", element(p), p.X, p.Y, p.Z)
	}
	if err := w.Flush(); err != nil {
		return CError{"mcmd: " + err.Error(), []string{"WriteXYZ"}}
	}
	return nil
}

//ReadXYZ reads the first frame of an XYZ file. The returned system has
//1-based contiguous tags, element labels and coordinates, but no types,
//molecules or box.
func ReadXYZ(path string) (*System, error) {
	frames, err := readXYZFrames(path, 1)
	if err != nil {
		return nil, errDecorate(err, "ReadXYZ")
	}
	return frames[0], nil
}

//ReadXYZLastFrame reads the last frame of a (possibly multi-frame) XYZ
//file, which is how the MC engine reports its final configuration.
func ReadXYZLastFrame(path string) (*System, error) {
	frames, err := readXYZFrames(path, -1)
	if err != nil {
		return nil, errDecorate(err, "ReadXYZLastFrame")
	}
	return frames[len(frames)-1], nil
}

//readXYZFrames reads up to max frames (-1 for all). It always returns at
//least one frame or an error.
func readXYZFrames(path string, max int) ([]*System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CError{"mcmd: " + err.Error(), []string{"readXYZFrames"}}
	}
	defer f.Close()
	var frames []*System
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		head := strings.TrimSpace(scanner.Text())
		if head == "" {
			continue
		}
		n, err := strconv.Atoi(head)
		if err != nil {
			return nil, CError{fmt.Sprintf("mcmd: %s: expected atom count, got %q", path, head), []string{"readXYZFrames"}}
		}
		if !scanner.Scan() {
			return nil, CError{fmt.Sprintf("mcmd: %s: truncated frame header", path), []string{"readXYZFrames"}}
		}
		s := NewSystem()
		for i := 0; i < n; i++ {
			if !scanner.Scan() {
				return nil, CError{fmt.Sprintf("mcmd: %s: truncated frame (%d of %d atoms)", path, i, n), []string{"readXYZFrames"}}
			}
			fields := strings.Fields(scanner.Text())
			if len(fields) < 4 {
				return nil, CError{fmt.Sprintf("mcmd: %s: short XYZ record %q", path, scanner.Text()), []string{"readXYZFrames"}}
			}
			p := new(Particle)
			p.Elem = fields[0]
			p.X, _ = strconv.ParseFloat(fields[1], 64)
			p.Y, _ = strconv.ParseFloat(fields[2], 64)
			p.Z, _ = strconv.ParseFloat(fields[3], 64)
			s.AddParticle(p)
		}
		frames = append(frames, s)
		if max > 0 && len(frames) == max {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, CError{"mcmd: " + err.Error(), []string{"readXYZFrames"}}
	}
	if len(frames) == 0 {
		return nil, CError{"mcmd: " + path + ": no XYZ frames found", []string{"readXYZFrames"}}
	}
	return frames, nil
}

//WriteDiagnostic writes an XYZ snapshot of s whose comment line reports the
//unresolved type names, so the affected geometry can be inspected. The
//resolver writes it at most once per run.
func WriteDiagnostic(path string, s *System, missing []string) error {
	comment := "unresolved particle types: " + strings.Join(missing, " ")
	return WriteXYZ(path, s, comment)
}
