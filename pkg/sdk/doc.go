// Package facility embeds an allocation ledger in a Go process: prepaid request
// budgets, operator-posted token allocations and beneficiary claims, optionally
// persisted to Redis with committed events appended to a stream.
//
// # Quick start
//
//	client, _ := facility.New(ctx,
//	    facility.WithAdmin(admin),
//	    facility.WithOperator(operator),
//	    facility.WithGas(gasPrice, gasCost),
//	)
//	_ = client.MintTokens(client.Address(), supply)
//	_ = client.FundNative(user, value)
//
//	_ = client.Budgets().Deposit(ctx, user, value)
//	_, _ = client.Allocations().Update(ctx, operator, user, amount, facility.Additive)
//	paid, _ := client.Allocations().Claim(ctx, user)
//
// # Persistence
//
// WithRedis stores budgets, allocations and roles under a key prefix and appends
// every committed event to a stream. A restarted client resumes from the stored state.
package facility
