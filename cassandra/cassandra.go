/*
 * cassandra.go, part of gomcmd.
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

//In order to use this package you need the Cassandra Monte-Carlo program.
//Please cite the Cassandra references if you use it.

//Package cassandra is the adapter for the external grand-canonical
//Monte-Carlo engine. It builds job descriptions (species, chemical
//potentials, starting composition), writes the engine's properties file,
//launches the engine and reads the resulting particle/box state back.
package cassandra

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	mcmd "github.com/rmera/gomcmd"
)

//Props is the Monte-Carlo option bundle. The recognized keys are promoted
//to fields; everything in Extra is forwarded to the engine's properties
//file unvalidated.
type Props struct {
	ChemPots []float64         `yaml:"chemical_potentials"` //one per species, required
	Rigid    []bool            `yaml:"rigid"`               //one per species, optional
	Temp     float64           `yaml:"temp"`
	MaxIns   int               `yaml:"max_insertions"`
	Extra    map[string]string `yaml:"extra"`
}

//Species is one insertable gas species: a minimal one-molecule system plus
//its chemical potential and rigid-body flag. The species order in a job is
//significant, it fixes the species index the engine reports against.
type Species struct {
	Sys     *mcmd.System
	ChemPot float64
	Rigid   bool
}

//GCMC describes one grand-canonical run: names, species, starting
//composition and the free-form properties forwarded to the engine.
type GCMC struct {
	RunName   string
	OutFolder string
	PropsFile string
	Species   []*Species
	Start     []int //starting composition: framework count, then one entry per species
	Props     *Props

	frameworkN int   //particles in the fixed framework
	speciesLen []int //particles per one molecule of each species
	madeIns    []int //final per-species molecule counts
}

//Cassandra owns the current combined system (fixed framework plus whatever
//gas is already present) and a queue of runs. The framework size is fixed
//at construction: the working system grows as gas accumulates, but its
//first frameworkN particles are always the framework.
type Cassandra struct {
	system     *mcmd.System
	command    string
	queue      []*GCMC
	frameworkN int
}

//New returns an adapter whose working system is a copy of the fixed
//framework system, with every framework particle flagged fixed. A nil
//framework gives an empty working system.
func New(fixed *mcmd.System) *Cassandra {
	C := new(Cassandra)
	C.command = os.Getenv("CASSANDRA_EXEC")
	if C.command == "" {
		C.command = "cassandra"
	}
	if fixed != nil {
		C.system = fixed.Copy()
		C.system.Wrap()
		for _, p := range C.system.Particles {
			p.Fixed = true
		}
	} else {
		C.system = mcmd.NewSystem()
	}
	C.frameworkN = C.system.Len()
	return C
}

//SetCommand sets the engine executable.
func (C *Cassandra) SetCommand(name string) {
	C.command = name
}

//System returns the adapter's current combined system.
func (C *Cassandra) System() *mcmd.System {
	return C.system
}

//SetSystem replaces the adapter's current combined system. The coupling
//loop uses it to hand the post-MD state back for the next iteration.
func (C *Cassandra) SetSystem(s *mcmd.System) {
	C.system = s
}

//Last returns the most recently queued run, or nil.
func (C *Cassandra) Last() *GCMC {
	if len(C.queue) == 0 {
		return nil
	}
	return C.queue[len(C.queue)-1]
}

//AddGCMC queues a grand-canonical run. The species' particle types must
//already be distinct across species (see couple.SuffixSpecies); they are
//merged into the working system's registry here. start is the starting
//composition: the framework instance count followed by the per-species
//molecule counts the run begins from. The properties file is written
//immediately, under OutFolder.
func (C *Cassandra) AddGCMC(species []*Species, start []int, runName, outFolder, propsFile string, props *Props) error {
	if len(species) == 0 {
		return Error{ErrNoSpecies, runName, "", []string{"AddGCMC"}, true}
	}
	if props == nil || len(props.ChemPots) == 0 {
		return Error{ErrNoChemPots, runName, "", []string{"AddGCMC"}, true}
	}
	if len(start) != len(species)+1 {
		return Error{ErrBadStart, runName, fmt.Sprintf("%d entries for %d species", len(start), len(species)), []string{"AddGCMC"}, true}
	}
	g := &GCMC{
		RunName:    runName,
		OutFolder:  outFolder,
		PropsFile:  propsFile,
		Species:    species,
		Start:      append([]int(nil), start...),
		Props:      props,
		frameworkN: C.frameworkN,
	}
	for _, sp := range species {
		g.speciesLen = append(g.speciesLen, sp.Sys.Len())
		for _, name := range sp.Sys.TypeNames() {
			C.system.AddType(sp.Sys.Type(name).Copy())
		}
	}
	if err := os.MkdirAll(outFolder, 0755); err != nil {
		return Error{ErrCantInput, propsFile, err.Error(), []string{"AddGCMC"}, true}
	}
	if err := g.writeProps(filepath.Join(outFolder, propsFile)); err != nil {
		return errDecorate(err, "AddGCMC")
	}
	C.queue = append(C.queue, g)
	return nil
}

//writeProps writes the engine's properties input file.
func (g *GCMC) writeProps(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return Error{ErrCantInput, path, err.Error(), []string{"writeProps"}, true}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# Run_Name\n%s\n\n", g.RunName)
	fmt.Fprintf(w, "# Sim_Type\ngcmc\n\n")
	if g.Props.Temp != 0 {
		fmt.Fprintf(w, "# Temperature_Info\n%.4f\n\n", g.Props.Temp)
	}
	fmt.Fprintf(w, "# Chemical_Potential_Info\n")
	for _, sp := range g.Species {
		fmt.Fprintf(w, "%.4f ", sp.ChemPot)
	}
	fmt.Fprintf(w, "\n\n")
	if g.Props.MaxIns != 0 {
		fmt.Fprintf(w, "# Max_Insertions\n%d\n\n", g.Props.MaxIns)
	}
	fmt.Fprintf(w, "# Start_Type\nspecies ")
	for _, n := range g.Start {
		fmt.Fprintf(w, "%d ", n)
	}
	fmt.Fprintf(w, "\n\n")
	//free-form keys, forwarded as given. Sorted so reruns produce
	//identical files.
	keys := make([]string, 0, len(g.Props.Extra))
	for k := range g.Props.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "# %s\n%s\n\n", k, g.Props.Extra[k])
	}
	fmt.Fprintf(w, "END\n")
	if err := w.Flush(); err != nil {
		return Error{ErrCantInput, path, err.Error(), []string{"writeProps"}, true}
	}
	return nil
}

//Run launches the engine on the last queued job and blocks until it exits,
//then rebuilds the working system from the run's outputs. There is no
//retry: a failed invocation is returned as-is.
func (C *Cassandra) Run() error {
	g := C.Last()
	if g == nil {
		return Error{ErrNoJob, "", "", []string{"Run"}, true}
	}
	com := fmt.Sprintf("%s %s > %s.out 2>&1", C.command, g.PropsFile, g.RunName)
	log.Printf("cassandra: %s (in %s)", com, g.OutFolder)
	command := exec.Command("sh", "-c", com)
	command.Dir = g.OutFolder
	if err := command.Run(); err != nil {
		return Error{ErrNotRunning, g.RunName, err.Error(), []string{"exec.Run", "Run"}, true}
	}
	sys, err := g.rebuild(C.system)
	if err != nil {
		return errDecorate(err, "Run")
	}
	C.system = sys
	return nil
}

//Resync rebuilds the adapter state for a run that already completed in a
//previous process: per-species counts come from the run's property table
//still on disk, coordinates and box from the pre-MD checkpoint file. The
//engine is not re-launched.
func (C *Cassandra) Resync(chkLMPS string) error {
	g := C.Last()
	if g == nil {
		return Error{ErrNoJob, "", "", []string{"Resync"}, true}
	}
	counts, err := readPrp(filepath.Join(g.OutFolder, g.RunName+".box1.prp"), len(g.Species))
	if err != nil {
		return errDecorate(err, "Resync")
	}
	g.madeIns = counts
	chk, err := mcmd.ReadLAMMPS(chkLMPS)
	if err != nil {
		return errDecorate(err, "Resync")
	}
	sys := g.compose(C.system, counts)
	if err := sys.MergeCoordsFrom(chk); err != nil {
		return errDecorate(err, "Resync")
	}
	C.system = sys
	return nil
}

//rebuild reads the engine outputs of g and composes the new working
//system: framework topology plus the reported number of molecules of each
//species, with coordinates from the engine's final configuration.
func (g *GCMC) rebuild(framework *mcmd.System) (*mcmd.System, error) {
	counts, err := readPrp(filepath.Join(g.OutFolder, g.RunName+".box1.prp"), len(g.Species))
	if err != nil {
		return nil, errDecorate(err, "rebuild")
	}
	g.madeIns = counts
	frame, err := mcmd.ReadXYZLastFrame(filepath.Join(g.OutFolder, g.RunName+".box1.xyz"))
	if err != nil {
		return nil, errDecorate(err, "rebuild")
	}
	sys := g.compose(framework, counts)
	if err := sys.MergeCoordsFrom(frame); err != nil {
		return nil, errDecorate(err, "rebuild")
	}
	return sys, nil
}

//compose builds the combined topology: a copy of the framework (only its
//first frameworkN particles, in case gas from earlier iterations is
//already merged in) followed by counts[i] copies of each species molecule,
//re-tagged contiguously.
func (g *GCMC) compose(current *mcmd.System, counts []int) *mcmd.System {
	sys := mcmd.NewSystem()
	sys.Box = current.Box.Copy()
	for _, name := range current.TypeNames() {
		sys.AddType(current.Type(name).Copy())
	}
	for i := 0; i < g.frameworkN; i++ {
		p := current.Particles[i].Copy()
		if p.Type != nil {
			p.Type = sys.AddType(p.Type.Copy())
		}
		p.Fixed = true
		sys.AddParticle(p)
	}
	for i, sp := range g.Species {
		for n := 0; n < counts[i]; n++ {
			tmpl := sp.Sys
			mol := 0
			for _, p := range sys.Particles {
				if p.MolID > mol {
					mol = p.MolID
				}
			}
			for _, tp := range tmpl.Particles {
				p := tp.Copy()
				if p.Type != nil {
					p.Type = sys.AddType(p.Type.Copy())
				}
				p.MolID = mol + 1
				p.Fixed = false
				sys.AddParticle(p)
			}
		}
	}
	return sys
}

//MadeInsertions returns the per-species molecule totals the engine
//reported for the last run (or resync).
func (C *Cassandra) MadeInsertions() []int {
	g := C.Last()
	if g == nil || g.madeIns == nil {
		return nil
	}
	r := make([]int, len(g.madeIns))
	copy(r, g.madeIns)
	return r
}

//GroupRanges delegates to the last queued run; an adapter with no queued
//run returns the empty string for every kind.
func (C *Cassandra) GroupRanges(kind string) string {
	g := C.Last()
	if g == nil {
		return ""
	}
	return g.GroupRanges(kind)
}

//GroupRanges returns the 1-based tag range(s) of the requested particle
//group in the composed system, as a LAMMPS-style id range string
//("lo:hi", multiple ranges space-separated). Recognized kinds are
//"matrix" (the fixed framework), "nonrigid" and "rigid". An empty string
//means the group is empty.
func (g *GCMC) GroupRanges(kind string) string {
	if g.madeIns == nil {
		return ""
	}
	var ranges []string
	if kind == "matrix" {
		if g.frameworkN > 0 {
			ranges = append(ranges, fmt.Sprintf("1:%d", g.frameworkN))
		}
		return strings.Join(ranges, " ")
	}
	lo := g.frameworkN + 1
	for i, sp := range g.Species {
		n := g.madeIns[i] * g.speciesLen[i]
		if n > 0 {
			hi := lo + n - 1
			if (kind == "rigid") == sp.Rigid {
				ranges = append(ranges, fmt.Sprintf("%d:%d", lo, hi))
			}
			lo = hi + 1
		}
	}
	return strings.Join(ranges, " ")
}

//readPrp reads the engine's property table: '#'-prefixed headers, then
//whitespace-separated rows whose first column is the step and whose last
//nspecies columns are the per-species molecule counts. The last row wins.
func readPrp(path string, nspecies int) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{ErrNoOutput, path, err.Error(), []string{"readPrp"}, true}
	}
	defer f.Close()
	var last []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		last = strings.Fields(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, Error{ErrNoOutput, path, err.Error(), []string{"readPrp"}, true}
	}
	if len(last) < nspecies+1 {
		return nil, Error{ErrNoOutput, path, fmt.Sprintf("property table has %d columns, need %d", len(last), nspecies+1), []string{"readPrp"}, true}
	}
	counts := make([]int, nspecies)
	for i := 0; i < nspecies; i++ {
		c, err := strconv.Atoi(last[len(last)-nspecies+i])
		if err != nil {
			return nil, Error{ErrNoOutput, path, "bad molecule count: " + last[len(last)-nspecies+i], []string{"readPrp"}, true}
		}
		counts[i] = c
	}
	return counts, nil
}
