/*
Package alignenv is the stimulus-and-observation core of a verification
environment for an alignment controller: a block that repackages
variable-length metadata (MD) transfers into fixed-granularity aligned
segments, configured through an APB-like register interface.

# Concept

An Environment is built from a config.EnvironmentConfig. Every enabled agent
shares one cycle clock:

  - the control-plane agent serves register accesses against a register map,
  - the MD source agent drives transfers and reports them to a bridge,
  - the bridge turns observations into TransactionRecords and publishes them,
  - the model predicts how each record is split against the alignment,
  - the scoreboard persists records and splits to a RecordSink.

Scenarios are sets of sequences run concurrently by a scenario driver. The
driver holds an objection for as long as any sequence runs, settles the design
before and after stimulus, and fails the scenario when any sequence fails.

# Usage

	cfg := config.New()
	cfg.SetControlPlaneEnabled(true)
	cfg.SetControlPlane(config.DefaultControlPlaneConfig())

	regs := memory.NewRegisterMap(domain.Register{Name: "CTRL", Address: 0, Width: 32})
	env, err := alignenv.New("smoke", cfg, alignenv.WithRegisters(regs), alignenv.WithSeed(1))
	if err != nil {
		log.Fatal(err)
	}

	tasks, err := env.Tasks([]config.SequenceSpec{{Kind: config.KindIllegal, Count: 100}})
	if err != nil {
		log.Fatal(err)
	}
	res, err := env.Run(context.Background(), tasks...)

Runs are reproducible: the seed is logged and reported in the Result.
*/
package alignenv
