/*
 * doc.go, part of gomcmd.
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

/*Package mcmd is the main package of the gomcmd library, an orchestrator for
alternating grand-canonical Monte Carlo and molecular dynamics simulations of
gas adsorption in microporous materials.

This root package provides the structural system model (particles, particle
types, boxes), a small force-field registry, geometry helpers for periodic
boundary conditions, and the readers/writers for the file formats the
external engines exchange (LAMMPS data files and XYZ trajectories).

The simulation work itself is done by external programs, driven by the
subpackages:

    amber      atom typing and charge derivation (antechamber, parmchk2)
    cassandra  the grand-canonical Monte Carlo engine adapter
    lmps       the molecular dynamics engine adapter
    couple     the MC/MD coupling loop with checkpointing and restart
    uptake     gas-loading statistics, tables and plots

gomcmd does not compute energies, forces or acceptance criteria. It builds
the engines' input files, launches them, parses their outputs and keeps the
combined system consistent between the two descriptions.

The cmd/gomcmd command runs a whole workflow from a YAML run file.
*/
package mcmd
