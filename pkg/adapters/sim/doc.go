// Package sim contains behavioral stand-ins for the protocol agents and the
// controller output, driven by a shared cycle clock.
package sim
