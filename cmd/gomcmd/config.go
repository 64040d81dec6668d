/*
 * config.go, part of gomcmd.
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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rmera/gomcmd/cassandra"
	"github.com/rmera/gomcmd/lmps"
)

//Config is the YAML run file of the gomcmd command. Paths are taken
//relative to the working directory. The mc and md sections are handed to
//the engine adapters as-is; unrecognized keys under their extra maps are
//forwarded verbatim to the engines.
type Config struct {
	Framework    string           `yaml:"framework"` //LAMMPS data file, typed and charged
	Gases        []string         `yaml:"gases"`     //one-molecule LAMMPS data files, in chemical-potential order
	GasNames     []string         `yaml:"gas_names"` //optional labels; defaults to the file base names
	SimFolder    string           `yaml:"sim_folder"`
	Iterations   int              `yaml:"iterations"`
	Restart      bool             `yaml:"restart"`
	NP           int              `yaml:"np"`
	Prefix       string           `yaml:"prefix"`
	ArchiveDumps bool             `yaml:"archive_dumps"`
	UptakeTable  string           `yaml:"uptake_table"` //optional, written after the run
	UptakePlot   string           `yaml:"uptake_plot"`  //optional PNG, written after the run
	FinalSystem  string           `yaml:"final_system"` //optional LAMMPS data file with the last composition
	MC           *cassandra.Props `yaml:"mc"`
	MD           *lmps.Props      `yaml:"md"`
}

//ReadConfig parses and validates a run file. Any problem it reports is
//fatal: a run with a broken configuration must not start.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gomcmd: cannot open the run file %s: %v", path, err)
	}
	defer f.Close()
	conf := new(Config)
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil {
		return nil, fmt.Errorf("gomcmd: cannot parse the run file %s: %v", path, err)
	}
	if conf.Framework == "" {
		return nil, fmt.Errorf("gomcmd: the run file %s does not name a framework file", path)
	}
	if len(conf.Gases) == 0 {
		return nil, fmt.Errorf("gomcmd: the run file %s does not name any gas species", path)
	}
	if len(conf.GasNames) != 0 && len(conf.GasNames) != len(conf.Gases) {
		return nil, fmt.Errorf("gomcmd: %d gas names given for %d gases in %s", len(conf.GasNames), len(conf.Gases), path)
	}
	if conf.MC == nil {
		return nil, fmt.Errorf("gomcmd: the run file %s has no mc section", path)
	}
	if conf.MD == nil {
		return nil, fmt.Errorf("gomcmd: the run file %s has no md section", path)
	}
	if len(conf.GasNames) == 0 {
		conf.GasNames = make([]string, len(conf.Gases))
		for i, g := range conf.Gases {
			base := filepath.Base(g)
			conf.GasNames[i] = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	if conf.Iterations <= 0 {
		conf.Iterations = 10
	}
	if conf.SimFolder == "" {
		conf.SimFolder = "results"
	}
	return conf, nil
}
