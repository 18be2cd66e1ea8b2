// Package phone normalizes and masks phone numbers used as rate-limit
// identities.
//
// Normalization produces a canonical international form suitable for use
// as a stable lookup key:
//
//	phone.Normalize("+1 (234) 567-8900") // "+12345678900"
//	phone.Normalize("0712 345 678")      // "+0712345678"
//	phone.Normalize("")                  // ""
//
// Masking keeps phone numbers out of logs while preserving enough of the
// tail for support and debugging:
//
//	phone.Mask("+15551234567")           // "****4567"
//	phone.MaskKey("phone:+15551234567")  // "phone:****4567"
//	phone.MaskKey("ip:203.0.113.7")      // "ip:203.0.113.7"
//
// All functions accept arbitrary input and never panic; garbage in simply
// normalizes to an empty or fully masked value.
package phone
