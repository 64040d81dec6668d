/*
 * lmps.go, part of gomcmd.
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

//In order to use this package you need the LAMMPS program. Please cite the
//LAMMPS references if you use it.

//Package lmps is the adapter for the external molecular-dynamics engine.
//A Simulation is assembled from blocks, each of which writes one fragment
//of the engine's input script; Run serializes the system, launches the
//engine as a blocking external process and reads the resulting state back.
package lmps

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	mcmd "github.com/rmera/gomcmd"
)

//Props is the Molecular-Dynamics option bundle. Timestep and Length may
//hold one entry (single-stage run) or several (staged run with fresh
//velocity initialization per stage). Everything in Extra is appended to the
//input script unvalidated.
type Props struct {
	Timestep      FloatSeq          `yaml:"timestep"`
	Length        IntSeq            `yaml:"length"`
	Temp          float64           `yaml:"temp"`
	Pressure      float64           `yaml:"pressure"`
	Thermo        int               `yaml:"thermo"`
	Dump          int               `yaml:"dump"`
	Cutoff        float64           `yaml:"cutoff"`
	SpecialBonds  string            `yaml:"special_bonds"`
	PairModify    string            `yaml:"pair_modify"`
	PrintToScreen bool              `yaml:"print_to_screen"`
	OMPThreads    int               `yaml:"omp_threads"`
	Extra         map[string]string `yaml:"extra"`
}

//Staged reports whether the bundle describes a staged (multi-timestep)
//run.
func (P *Props) Staged() bool {
	return len(P.Timestep) > 1
}

//Init writes the opening settings of the input script.
type Init struct {
	Cutoff       float64
	SpecialBonds string
	PairModify   string
}

func (b Init) String() string {
	var s strings.Builder
	s.WriteString("units real\natom_style full\n")
	if b.Cutoff > 0 {
		fmt.Fprintf(&s, "pair_style lj/cut/coul/long %.4f\n", b.Cutoff)
	} else {
		s.WriteString("pair_style lj/cut 12.0\n")
	}
	if b.SpecialBonds != "" {
		fmt.Fprintf(&s, "special_bonds %s\n", b.SpecialBonds)
	}
	if b.PairModify != "" {
		fmt.Fprintf(&s, "pair_modify %s\n", b.PairModify)
	}
	return s.String()
}

//Group defines a particle group from an id range string (see
//cassandra.GCMC.GroupRanges).
type Group struct {
	Name string
	IDs  string
}

func (b Group) String() string {
	return fmt.Sprintf("group %s id %s\n", b.Name, b.IDs)
}

//Velocity (re)initializes or rescales velocities for all particles.
//Style is "create" or "scale".
type Velocity struct {
	Style string
	Temp  float64
	Seed  int
}

func (b Velocity) String() string {
	seed := b.Seed
	if seed == 0 {
		seed = 4928459 //engine requires an explicit seed; any fixed odd number does
	}
	if b.Style == "scale" {
		return fmt.Sprintf("velocity all scale %.4f\n", b.Temp)
	}
	return fmt.Sprintf("velocity all create %.4f %d\n", b.Temp, seed)
}

//OutputSettings sets the thermodynamic-output and trajectory-dump
//frequencies.
type OutputSettings struct {
	Thermo   int
	DumpFile string
	DumpFreq int
}

func (b OutputSettings) String() string {
	var s strings.Builder
	if b.Thermo > 0 {
		fmt.Fprintf(&s, "thermo %d\n", b.Thermo)
	}
	if b.DumpFile != "" && b.DumpFreq > 0 {
		fmt.Fprintf(&s, "dump md_dump all atom %d %s\n", b.DumpFreq, b.DumpFile)
	}
	return s.String()
}

//MolecularDynamics is one named integration fix. Ensemble is the engine's
//fix style ("npt", or "rigid/nvt/small molecule" for rigid bodies). The
//fix is written without a run command; the caller decides when to run and
//when to remove it.
type MolecularDynamics struct {
	FixName  string
	Ensemble string
	Group    string
	Timestep float64
	Temp     float64
	Pressure float64
	Dilate   bool
}

func (b MolecularDynamics) String() string {
	var s strings.Builder
	if b.Timestep > 0 {
		fmt.Fprintf(&s, "timestep %.4f\n", b.Timestep)
	}
	group := b.Group
	if group == "" {
		group = "all"
	}
	switch {
	case strings.HasPrefix(b.Ensemble, "rigid"):
		fmt.Fprintf(&s, "fix %s %s %s temp %.4f %.4f 100\n", b.FixName, group, b.Ensemble, b.Temp, b.Temp)
	default: //npt
		fmt.Fprintf(&s, "fix %s %s npt temp %.4f %.4f 100 iso %.4f %.4f 1000", b.FixName, group, b.Temp, b.Temp, b.Pressure, b.Pressure)
		if b.Dilate {
			s.WriteString(" dilate all")
		}
		s.WriteString("\n")
	}
	return s.String()
}

//Custom is a raw input-script fragment.
type Custom string

func (b Custom) String() string {
	return string(b) + "\n"
}

//Simulation assembles and runs one MD job. The thread count for the
//engine's own OpenMP layer is shaped on the child process environment
//only; the orchestrating process environment is never touched.
type Simulation struct {
	Name          string //basename for the input, data and hand-back files
	Log           string
	PrintToScreen bool
	OMPThreads    int //0 means 1: the engine parallelizes over MPI ranks, not threads

	sys     *mcmd.System
	command string
	blocks  []fmt.Stringer

	serialWarned bool
	prefixWarned bool
}

//NewSimulation returns a Simulation for a copy of s. Name is the basename
//used for the engine files, logpath the engine log.
func NewSimulation(s *mcmd.System, name, logpath string) *Simulation {
	S := new(Simulation)
	S.sys = s.Copy()
	S.Name = name
	S.Log = logpath
	S.command = os.Getenv("LAMMPS_EXEC")
	if S.command == "" {
		S.command = "lmp"
	}
	return S
}

//SetCommand sets the engine executable.
func (S *Simulation) SetCommand(name string) {
	S.command = name
}

//Add appends a script block.
func (S *Simulation) Add(b fmt.Stringer) {
	S.blocks = append(S.blocks, b)
}

//AddCustom appends a raw script fragment.
func (S *Simulation) AddCustom(line string) {
	S.blocks = append(S.blocks, Custom(line))
}

//System returns the simulation's current system: before Run, the copy it
//was built from; after a successful Run, the state handed back by the
//engine.
func (S *Simulation) System() *mcmd.System {
	return S.sys
}

//WriteInput writes the full input script: data-file read, all blocks in
//order, and the final write_data hand-back command.
func (S *Simulation) WriteInput(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# written by gomcmd\n")
	fmt.Fprintf(bw, "log %s\n", S.Log)
	fmt.Fprintf(bw, "read_data %s.data\n", S.Name)
	for _, b := range S.blocks {
		bw.WriteString(b.String())
	}
	fmt.Fprintf(bw, "write_data %s.out.data\n", S.Name)
	if err := bw.Flush(); err != nil {
		return Error{ErrCantInput, S.Name, err.Error(), []string{"WriteInput"}, true}
	}
	return nil
}

//Run serializes the system, writes the input script and launches the
//engine, blocking until it exits. np is the MPI process count: zero runs
//the engine serially (logged once as a chosen default); a positive np with
//an empty prefix defaults the launcher to mpiexec, also logged once. On
//success the simulation's system is re-synchronized from the engine's
//hand-back file.
func (S *Simulation) Run(np int, prefix string) error {
	if err := mcmd.WriteLAMMPS(S.Name+".data", S.sys); err != nil {
		return errDecorate(err, "Run")
	}
	in, err := os.Create(S.Name + ".in")
	if err != nil {
		return Error{ErrCantInput, S.Name, err.Error(), []string{"Run"}, true}
	}
	if err := S.WriteInput(in); err != nil {
		in.Close()
		return errDecorate(err, "Run")
	}
	in.Close()
	var com string
	if np <= 0 {
		if !S.serialWarned {
			log.Printf("lmps: process count not specified, defaulting to serial")
			S.serialWarned = true
		}
		com = fmt.Sprintf("%s -in %s.in", S.command, S.Name)
	} else {
		if prefix == "" {
			if !S.prefixWarned {
				log.Printf("lmps: launch prefix not specified, defaulting to mpiexec")
				S.prefixWarned = true
			}
			prefix = "mpiexec"
		}
		com = fmt.Sprintf("%s -np %d %s -in %s.in", prefix, np, S.command, S.Name)
	}
	if !S.PrintToScreen {
		com += " > /dev/null 2>&1"
	}
	log.Printf("lmps: %s", com)
	command := exec.Command("sh", "-c", com)
	threads := S.OMPThreads
	if threads <= 0 {
		threads = 1
	}
	command.Env = append(os.Environ(), "OMP_NUM_THREADS="+strconv.Itoa(threads))
	if err := command.Run(); err != nil {
		return Error{ErrNotRunning, S.Name, err.Error(), []string{"exec.Run", "Run"}, true}
	}
	out, err := mcmd.ReadLAMMPS(S.Name + ".out.data")
	if err != nil {
		return errDecorate(err, "Run")
	}
	if err := S.sys.MergeCoordsFrom(out); err != nil {
		return errDecorate(err, "Run")
	}
	return nil
}
