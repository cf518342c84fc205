/*
Package standings computes league tables from match results.

Compute rebuilds a tournament's full table from its set of completed
match results, so the output depends only on the set, not on delivery
order or repetition. Scoring points are configurable via Rules; the
default is 3/1/0.

Ranking sorts by points, then goal difference, then goals scored, with
team ID ascending as the final deterministic tie-break, and assigns
positions 1..n.
*/
package standings
