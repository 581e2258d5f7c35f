/*
Package bridge turns monitor observations into transaction records.

A Bridge is the publish side of the transaction pipeline: monitors call
OnObservation once per observed transfer, the bridge translates it, marks it as
the beginning or the end of a transaction and hands a private copy to every
subscriber before returning. Ordering between successive observations is
therefore preserved at every subscriber.

	b := bridge.New("md_sink", bridge.WithLogger(logger))
	b.Subscribe("scoreboard", func(ctx context.Context, rec *domain.TransactionRecord) {
		// compare rec
	})
	monitor.Attach(b)
*/
package bridge
