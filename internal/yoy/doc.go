// Package yoy holds the year-over-year analytics core: scoring a customer
// population, ranking decliners and growers, and decomposing a single
// customer's change into price, volume, mix, returns, geography and cadence.
//
// Everything here is pure. Functions copy their inputs, share no state and
// never read configuration, so results depend only on the arguments.
package yoy
