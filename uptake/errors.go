/*
 * errors.go, part of gomcmd.
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

package uptake

import "fmt"

//Error is the concrete error type of the uptake package. It satisfies
//mcmd.Error.
type Error struct {
	message  string
	filename string
	extra    string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" && err.extra == "" {
		return err.message
	}
	if err.extra == "" {
		return fmt.Sprintf("%s (%s)", err.message, err.filename)
	}
	return fmt.Sprintf("%s (%s): %s", err.message, err.filename, err.extra)
}

//Decorate adds dec to the decoration slice of the error and returns the
//resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical reports whether the error invalidates the run.
func (err Error) Critical() bool { return err.critical }

//Error messages of the uptake package.
const (
	ErrNoData    = "uptake: no iterations recorded"
	ErrCantWrite = "uptake: cannot write the loadings table"
	ErrPlot      = "uptake: cannot build the loadings plot"
)
