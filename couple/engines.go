/*
 * engines.go, part of gomcmd.
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

	mcmd "github.com/rmera/gomcmd"
	"github.com/rmera/gomcmd/cassandra"
	"github.com/rmera/gomcmd/lmps"
)

//MCEngine is what the loop needs from the Monte-Carlo engine adapter.
//*cassandra.Cassandra is the default implementation; the interface exists
//so the loop's state machine can be exercised without the external
//engine.
type MCEngine interface {
	//AddGCMC queues one grand-canonical job.
	AddGCMC(species []*cassandra.Species, start []int, runName, outFolder, propsFile string, props *cassandra.Props) error

	//Run launches the queued job and blocks until completion, replacing
	//the engine's working system with the run result.
	Run() error

	//Resync reconstructs the working state of an already-completed run
	//from its on-disk outputs and the given pre-MD checkpoint, without
	//launching the engine.
	Resync(chkLMPS string) error

	//MadeInsertions returns the per-species molecule totals of the last
	//run or resync.
	MadeInsertions() []int

	//GroupRanges returns the tag ranges of the "matrix", "nonrigid" or
	//"rigid" group in the working system.
	GroupRanges(kind string) string

	System() *mcmd.System
	SetSystem(*mcmd.System)
}

//MDSim is what the loop needs from one MD job: it adds script blocks,
//runs, and hands the resulting system back. *lmps.Simulation is the
//default implementation.
type MDSim interface {
	Add(fmt.Stringer)
	AddCustom(string)
	Run(np int, prefix string) error
	System() *mcmd.System
}

//MDFactory builds one MD job per iteration.
type MDFactory func(sys *mcmd.System, name, logpath string, props *lmps.Props) MDSim

//newLAMMPS is the default MDFactory.
func newLAMMPS(sys *mcmd.System, name, logpath string, props *lmps.Props) MDSim {
	sim := lmps.NewSimulation(sys, name, logpath)
	sim.PrintToScreen = props.PrintToScreen
	sim.OMPThreads = props.OMPThreads
	return sim
}
