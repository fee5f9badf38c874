/*
Package resilience provides the circuit breaker the launcher uses to refuse
apps whose factories keep failing.

# Usage

	group := resilience.NewGroup(resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	err := group.For("terminal").Do(func() error {
		instance, err = factory(ctx, env)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// refused without calling the factory
	}

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
