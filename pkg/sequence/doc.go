/*
Package sequence implements the constrained-random stimulus generators.

Every sequence repeatedly generates one randomized item, dispatches it to its
agent, blocks until the agent reports completion and then idles for a random
number of cycles on the shared clock. Those two waits are the only suspension
points, so items of one sequence are strictly ordered while separate sequences
interleave freely.

# Sequences

  - IllegalAccess: control-plane accesses to addresses outside the register map.
  - LegalAccess: control-plane accesses to registers of the map.
  - MDTraffic: metadata transfers with random length and content.

Each sequence owns a PCG random source seeded from WithSeed and its name,
which keeps runs reproducible regardless of how tasks interleave.
*/
package sequence
