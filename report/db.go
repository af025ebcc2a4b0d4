// Package report provides sinks for swarm runs: SQL tables of the particle
// history, a convergence curve plot and CSV export of the run table.
package report

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rwcarlsen/pso"
	"github.com/rwcarlsen/pso/swarm"
)

const (
	// TblParticles is the name of the sql database table that contains
	// positions and values for particles for each iteration.
	TblParticles = "swarmparticles"
	// TblParticlesBest is the name of the sql database table that contains
	// each particle's personal best position at each iteration.
	TblParticlesBest = "swarmparticlesbest"
	// TblBest is the name of the sql database table that contains
	// the best position for the entire swarm at each iteration.
	TblBest = "swarmbest"
)

// DB is a swarm.Recorder that writes every particle's position and value,
// every particle's personal best and the swarm best into sql tables.  The
// tables are created on the first Record call, once the number of
// dimensions is known.  Each iteration is written in its own transaction.
type DB struct {
	db   *sql.DB
	ndim int
}

func NewDB(db *sql.DB) *DB {
	return &DB{db: db}
}

func (d *DB) Record(iter int, pop swarm.Population, best pso.Point) error {
	if len(pop) == 0 {
		return nil
	}
	if d.ndim == 0 {
		if err := d.initdb(len(pop[0].Pos)); err != nil {
			return err
		}
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}

	s0 := "INSERT INTO " + TblParticles + " (particle,iter,val" + d.xdbsql("x") + ") VALUES (?,?,?" + d.xdbsql("?") + ");"
	s1 := "INSERT INTO " + TblParticlesBest + " (particle,iter,best" + d.xdbsql("x") + ") VALUES (?,?,?" + d.xdbsql("?") + ");"
	for _, p := range pop {
		args := []interface{}{p.Id, iter, p.Val}
		args = append(args, pos2iface(p.Pos)...)
		if _, err := tx.Exec(s0, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("report: insert particle %v: %w", p.Id, err)
		}

		args = []interface{}{p.Id, iter, p.BestVal}
		args = append(args, pos2iface(p.BestPos)...)
		if _, err := tx.Exec(s1, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("report: insert particle %v best: %w", p.Id, err)
		}
	}

	s2 := "INSERT INTO " + TblBest + " (iter,val" + d.xdbsql("x") + ") VALUES (?,?" + d.xdbsql("?") + ");"
	args := []interface{}{iter, best.Val}
	args = append(args, pos2iface(best.Pos())...)
	if _, err := tx.Exec(s2, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("report: insert swarm best: %w", err)
	}
	return tx.Commit()
}

func (d *DB) initdb(ndim int) error {
	d.ndim = ndim
	tables := []string{
		"CREATE TABLE IF NOT EXISTS " + TblParticles + " (particle INTEGER, iter INTEGER, val REAL" + d.xdbsql("define") + ");",
		"CREATE TABLE IF NOT EXISTS " + TblParticlesBest + " (particle INTEGER, iter INTEGER, best REAL" + d.xdbsql("define") + ");",
		"CREATE TABLE IF NOT EXISTS " + TblBest + " (iter INTEGER, val REAL" + d.xdbsql("define") + ");",
	}
	for _, s := range tables {
		if _, err := d.db.Exec(s); err != nil {
			d.ndim = 0
			return fmt.Errorf("report: create tables: %w", err)
		}
	}
	return nil
}

func (d *DB) xdbsql(op string) string {
	var s strings.Builder
	for i := 0; i < d.ndim; i++ {
		switch op {
		case "?":
			s.WriteString(",?")
		case "define":
			fmt.Fprintf(&s, ",x%v REAL", i)
		case "x":
			fmt.Fprintf(&s, ",x%v", i)
		default:
			panic("invalid db op " + op)
		}
	}
	return s.String()
}

func pos2iface(pos []float64) []interface{} {
	iface := make([]interface{}, 0, len(pos))
	for _, v := range pos {
		iface = append(iface, v)
	}
	return iface
}
