// Package calc sizes residential solar systems and prices them.
//
// Everything here is a pure function over plain value records: a
// household's usage profile goes in, and sizing, production, cost,
// incentive, depreciation, financing and long-horizon savings figures
// come out. Nothing is cached between calls.
//
// # Pricing presets
//
// Cost per watt, battery price, financing terms and utility escalation
// are carried by a named Preset rather than being fixed constants. The
// built-in presets reproduce the figures each sales scenario quotes:
//
//	proposal  2.60 $/W  $10,500/battery  3% escalation  finances after depreciation
//	cash      2.60 $/W  $10,500/battery  6% escalation
//	financed  3.50 $/W  $10,500/battery  6% escalation
//	standard  3.00 $/W  $10,000/battery  6% escalation
//	estimate  3.45 $/W  $10,500/battery  6% escalation
//
// All of them finance at 3.99% APR over 25 years.
//
// # Errors
//
// Inputs are validated before any arithmetic runs. Rejections wrap
// ErrInvalidInput, so callers can match them with errors.Is and never see
// NaN or Inf in a result.
package calc
