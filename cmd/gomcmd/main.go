/*
 * main.go, part of gomcmd.
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

//gomcmd runs an alternating grand-canonical Monte Carlo / molecular
//dynamics simulation of gas adsorption, driven by a YAML run file:
//
//	gomcmd run.yaml
//
//It is the only part of the library allowed to terminate the process.
package main

import (
	"fmt"
	"log"
	"os"

	mcmd "github.com/rmera/gomcmd"
	"github.com/rmera/gomcmd/couple"
	"github.com/rmera/gomcmd/uptake"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: gomcmd run.yaml")
		os.Exit(2)
	}
	conf, err := ReadConfig(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	framework, err := mcmd.ReadLAMMPS(conf.Framework)
	if err != nil {
		log.Fatal(err)
	}
	gases := make([]*mcmd.System, len(conf.Gases))
	for i, path := range conf.Gases {
		gases[i], err = mcmd.ReadLAMMPS(path)
		if err != nil {
			log.Fatal(err)
		}
	}
	coll := uptake.NewCollector(conf.GasNames)
	opts := &couple.Options{
		Iterations:   conf.Iterations,
		SimFolder:    conf.SimFolder,
		Restart:      conf.Restart,
		NP:           conf.NP,
		Prefix:       conf.Prefix,
		ArchiveDumps: conf.ArchiveDumps,
		Collector:    coll,
	}
	final, err := couple.MCMD(gases, framework, conf.MC, conf.MD, opts)
	if err != nil {
		log.Fatal(err)
	}
	if conf.UptakeTable != "" {
		f, err := os.Create(conf.UptakeTable)
		if err != nil {
			log.Fatal(err)
		}
		if err := coll.Table(f); err != nil {
			f.Close()
			log.Fatal(err)
		}
		f.Close()
	}
	if conf.UptakePlot != "" {
		if err := coll.PlotPNG(conf.UptakePlot, "Gas uptake"); err != nil {
			log.Fatal(err)
		}
	}
	if conf.FinalSystem != "" && final != nil {
		if err := mcmd.WriteLAMMPS(conf.FinalSystem, final); err != nil {
			log.Fatal(err)
		}
	}
	means := coll.Means()
	for i, name := range coll.Names() {
		log.Printf("gomcmd: mean uptake of %s over %d iterations: %.2f molecules", name, coll.Len(), means[i])
	}
}
