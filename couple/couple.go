/*
 * couple.go, part of gomcmd.
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

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package couple runs the iterative hybrid Monte-Carlo/Molecular-Dynamics
//workflow: each iteration inserts gas with the grand-canonical engine,
//relaxes the combined system with the molecular-dynamics engine, and hands
//the resulting state to the next iteration through per-iteration
//checkpoint files. An interrupted workflow is resumed from the last fully
//checkpointed iteration, never retried.
package couple

import (
	"fmt"
	"log"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"

	mcmd "github.com/rmera/gomcmd"
	"github.com/rmera/gomcmd/cassandra"
	"github.com/rmera/gomcmd/lmps"
)

//group names used in the MD phase
const (
	nonrigGroupName = "nonrigid_b"
	rigGroupName    = "rigid_b"
)

//Recorder collects per-iteration insertion statistics. uptake.Collector
//implements it.
type Recorder interface {
	Record(iter int, made []int)
}

//Options controls one MCMD run. The zero value runs zero iterations in
//"results" without restart; DefaultOptions gives the usual defaults.
type Options struct {
	Iterations   int    //number of MC/MD iterations. There is no convergence-based early stop.
	SimFolder    string //folder for all per-iteration artifacts
	Restart      bool   //resume from the last fully checkpointed iteration
	NP           int    //MD engine process count; 0 runs serially
	Prefix       string //MD engine launch prefix; defaults to mpiexec when NP > 0
	ArchiveDumps bool   //zstd-compress each iteration's trajectory dump
	Collector    Recorder
	MC           MCEngine  //test seam; nil uses the cassandra adapter
	NewMD        MDFactory //test seam; nil uses the lmps adapter
}

//DefaultOptions returns the stock options: 10 iterations in "results".
func DefaultOptions() *Options {
	return &Options{Iterations: 10, SimFolder: "results"}
}

//MCMD runs the coupled workflow: gases is the ordered list of one-molecule
//gas species systems, fixed the framework held fixed during MC, mcp and
//mdp the two engine option bundles. It returns the final combined system,
//or nil if the loop body never ran. Missing required inputs (no gas
//species, no chemical potentials, no MD settings) are configuration
//errors, returned as critical and never retried.
func MCMD(gases []*mcmd.System, fixed *mcmd.System, mcp *cassandra.Props, mdp *lmps.Props, opts *Options) (*mcmd.System, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.SimFolder == "" {
		opts.SimFolder = "results"
	}
	if len(gases) == 0 {
		return nil, Error{ErrNoGases, "", "gas molecules are needed to start the MC-MD simulations", []string{"MCMD"}, true}
	}
	if mcp == nil {
		return nil, Error{ErrNoMCProps, "", "", []string{"MCMD"}, true}
	}
	if len(mcp.ChemPots) == 0 {
		return nil, Error{ErrNoChemPots, "", "", []string{"MCMD"}, true}
	}
	if len(mcp.ChemPots) != len(gases) {
		return nil, Error{ErrNoChemPots, "", fmt.Sprintf("%d chemical potentials for %d species", len(mcp.ChemPots), len(gases)), []string{"MCMD"}, true}
	}
	if mdp == nil {
		return nil, Error{ErrNoMDProps, "", "", []string{"MCMD"}, true}
	}
	if len(mdp.Timestep) == 0 || len(mdp.Timestep) != len(mdp.Length) {
		return nil, Error{ErrNoMDProps, "", "timestep and length must have the same (nonzero) number of stages", []string{"MCMD"}, true}
	}
	if err := os.MkdirAll(opts.SimFolder, 0755); err != nil {
		return nil, Error{ErrCheckpoint, opts.SimFolder, err.Error(), []string{"MCMD"}, true}
	}
	ck := Checkpoints{Dir: opts.SimFolder}

	//De-synchronize type names across species, exactly once and before any
	//MC job exists: chemically-identical bare names from different species
	//must not consolidate into one force-field type.
	species := SuffixSpecies(gases, mcp)

	mc := opts.MC
	if mc == nil {
		mc = cassandra.New(fixed)
	}
	newMD := opts.NewMD
	if newMD == nil {
		newMD = newLAMMPS
	}

	//FRESH_START unless a resumable checkpoint exists. A restart request
	//over an empty folder is a fresh start.
	l := 1
	resume := false
	if opts.Restart {
		k, err := ck.HighestComplete()
		if err != nil {
			return nil, errDecorate(err, "MCMD")
		}
		if k >= 1 {
			if err := ck.PurgePartial(k); err != nil {
				return nil, errDecorate(err, "MCMD")
			}
			l = k
			resume = true
			log.Printf("couple: resuming at iteration %d", k)
		}
	}

	made := make([]int, len(gases)) //cumulative per-species insertions
	var final *mcmd.System
	for ; l <= opts.Iterations; l++ {
		//MC phase
		start := append([]int{1}, made...)
		err := mc.AddGCMC(species, start, ck.RunName(l), opts.SimFolder, ck.PropsFile(l), mcp)
		if err != nil {
			return nil, errDecorate(err, "MCMD")
		}
		if resume {
			//the engine already completed this run in the interrupted
			//process; only the in-memory state is re-synchronized
			if err := mc.Resync(ck.BeforeMD(l)); err != nil {
				return nil, errDecorate(err, "MCMD")
			}
			resume = false
		} else {
			if err := mc.Run(); err != nil {
				return nil, errDecorate(err, "MCMD")
			}
			if err := mcmd.WriteLAMMPS(ck.BeforeMD(l), mc.System()); err != nil {
				return nil, errDecorate(err, "MCMD")
			}
		}

		//MD phase
		sim := newMD(mc.System(), ck.MDName(l), ck.MDLog(l), mdp)
		rigid := mc.GroupRanges("rigid")
		buildMD(sim, mc, mdp, ck, l, rigid)
		if err := sim.Run(opts.NP, opts.Prefix); err != nil {
			return nil, errDecorate(err, "MCMD")
		}
		sys := sim.System().Copy()
		mc.SetSystem(sys)
		sys.UnwrapMolecules()
		if err := mcmd.WriteXYZ(ck.MDOut(l), sys, fmt.Sprintf("gomcmd iteration %d", l)); err != nil {
			return nil, errDecorate(err, "MCMD")
		}
		made = mc.MadeInsertions()
		if opts.Collector != nil {
			opts.Collector.Record(l, made)
		}
		if opts.ArchiveDumps {
			if err := archiveDump(ck.MDDump(l)); err != nil {
				log.Printf("couple: could not archive %s: %v", ck.MDDump(l), err)
			}
		}
		final = sys
	}
	return final, nil
}

//SuffixSpecies builds the MC species list from the gas systems and the MC
//option bundle, deep-copying each system with its particle types renamed
//by a per-species suffix ("_g1", "_g2", ...). The input systems and their
//type records are never mutated. Species order is preserved: it fixes the
//species index used in job construction.
func SuffixSpecies(gases []*mcmd.System, mcp *cassandra.Props) []*cassandra.Species {
	species := make([]*cassandra.Species, len(gases))
	for i, g := range gases {
		sp := &cassandra.Species{
			Sys:     g.SuffixTypes(fmt.Sprintf("_g%d", i+1)),
			ChemPot: mcp.ChemPots[i],
		}
		if i < len(mcp.Rigid) {
			sp.Rigid = mcp.Rigid[i]
		}
		species[i] = sp
	}
	return species
}

//buildMD assembles the MD job for one iteration: groups, the tether that
//keeps the fixed framework from drifting, and either a single integration
//stage or the staged sequence with per-stage velocity re-initialization.
func buildMD(sim MDSim, mc MCEngine, mdp *lmps.Props, ck Checkpoints, iter int, rigid string) {
	sim.Add(lmps.Init{Cutoff: mdp.Cutoff, SpecialBonds: mdp.SpecialBonds, PairModify: mdp.PairModify})
	sim.AddCustom("neighbor 2.0 bin\nneigh_modify delay 0 every 1 check yes\nrun_style verlet")
	forwardExtra(sim, mdp)

	sim.Add(lmps.Group{Name: "matrix", IDs: mc.GroupRanges("matrix")})
	sim.Add(lmps.Group{Name: nonrigGroupName, IDs: mc.GroupRanges("nonrigid")})
	if rigid != "" {
		sim.Add(lmps.Group{Name: rigGroupName, IDs: rigid})
	}
	mainGroup := "all"
	if rigid != "" {
		mainGroup = nonrigGroupName
	}
	c := matrixCenter(mc.System())

	if mdp.Staged() {
		sim.Add(lmps.OutputSettings{Thermo: mdp.Thermo, DumpFile: ck.MDDump(iter), DumpFreq: mdp.Dump})
		for it, t := range mdp.Timestep {
			sim.Add(lmps.Velocity{Style: "create", Temp: mdp.Temp})
			if rigid != "" {
				//a zero-length pre-step plus rescale initializes the
				//temperature correctly in the presence of rigid bodies
				sim.AddCustom("run 0")
				sim.Add(lmps.Velocity{Style: "scale", Temp: mdp.Temp})
				sim.Add(lmps.MolecularDynamics{FixName: fmt.Sprintf("rig_fix_%d", it), Ensemble: "rigid/nvt/small molecule", Group: rigGroupName, Temp: mdp.Temp})
			}
			sim.Add(lmps.MolecularDynamics{FixName: fmt.Sprintf("main_fix_%d", it), Ensemble: "npt", Group: mainGroup, Timestep: t, Temp: mdp.Temp, Pressure: mdp.Pressure, Dilate: rigid != ""})
			sim.AddCustom(fmt.Sprintf("fix tether_fix_%d matrix spring tether 30.0 %.4f %.4f %.4f 0.0", it, c[0], c[1], c[2]))
			sim.AddCustom(fmt.Sprintf("run %d\n", mdp.Length[it]))
			sim.AddCustom(fmt.Sprintf("unfix main_fix_%d", it))
			if rigid != "" {
				sim.AddCustom(fmt.Sprintf("unfix rig_fix_%d", it))
			}
			sim.AddCustom(fmt.Sprintf("unfix tether_fix_%d", it))
		}
	} else {
		if rigid != "" {
			sim.Add(lmps.MolecularDynamics{FixName: "rig_fix", Ensemble: "rigid/nvt/small molecule", Group: rigGroupName, Temp: mdp.Temp})
		}
		sim.Add(lmps.MolecularDynamics{FixName: "main_fix", Ensemble: "npt", Group: mainGroup, Timestep: mdp.Timestep[0], Temp: mdp.Temp, Pressure: mdp.Pressure, Dilate: rigid != ""})
		sim.AddCustom(fmt.Sprintf("fix tether_fix matrix spring tether 30.0 %.4f %.4f %.4f 0.0", c[0], c[1], c[2]))
		sim.Add(lmps.OutputSettings{Thermo: mdp.Thermo, DumpFile: ck.MDDump(iter), DumpFreq: mdp.Dump})
		sim.AddCustom(fmt.Sprintf("run %d\n", mdp.Length[0]))
	}
}

//forwardExtra appends the unrecognized MD option keys to the script,
//unvalidated, in a stable order.
func forwardExtra(sim MDSim, mdp *lmps.Props) {
	if len(mdp.Extra) == 0 {
		return
	}
	keys := make([]string, 0, len(mdp.Extra))
	for k := range mdp.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sim.AddCustom(fmt.Sprintf("%s %s", k, mdp.Extra[k]))
	}
}

//matrixCenter returns the geometric center of the fixed framework, the
//anchor point of the tether force.
func matrixCenter(sys *mcmd.System) [3]float64 {
	var c [3]float64
	n := 0
	for _, p := range sys.Particles {
		if !p.Fixed {
			continue
		}
		floats.Add(c[:], []float64{p.X, p.Y, p.Z})
		n++
	}
	if n > 0 {
		floats.Scale(1/float64(n), c[:])
	}
	return c
}
