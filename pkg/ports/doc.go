/*
Package ports defines the driven ports (interfaces) of the environment.

These interfaces decouple the stimulus and translation core from the agents,
register maps and persistence backends it runs against.

# Key Interfaces

  - ControlPlaneAgent / MDSourceAgent: blocking dispatch entry points of the agents.
  - ObservationHandler: receiver of monitor observations (the bridge).
  - RegisterModel: the register-address oracle.
  - Clock: the shared cycle source.
  - RecordSink: persistence of records and split descriptors for comparison.
*/
package ports
