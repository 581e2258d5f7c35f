/*
Package domain contains the value types shared by every part of the environment.

It is kept free of I/O, clocks and randomness. Components exchange these types
through the interfaces in package ports.

# Key Entities

  - TransactionRecord: one translated transfer, as published by the bridge.
  - SplitDescriptor: one fragmentation decision of the alignment controller.
  - Observation: the raw report of a monitor, before translation.
  - AccessRequest / AccessResponse: one control-plane register access.
  - Register: one entry of the register map served by the address oracle.
  - LifecycleHooks: optional callbacks used for logging and metrics.
*/
package domain
