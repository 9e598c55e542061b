// Package rightsledger provides a reusable library for granting, tracking,
// and monetizing digital-content access rights: initial purchase,
// time-bounded rental, tiered subscription, and chained resale with
// automatic multi-party royalty splitting.
//
// It exposes a single Service interface over a keyed record store. Every
// record lives at a canonical key derived by the recordkey subpackage, and
// every state-changing operation is one atomic step: it either applies its
// full effect or none of it. Store implementations (memory, Postgres) live
// under repo/.
//
// Money
//
// All monetary and percentage fields are integers; there is no floating
// point anywhere in the ledger. Splits use floor division and the remainder
// is always absorbed by a named party, so the legs of a settlement sum
// exactly to the transaction amount. Account balances themselves are out of
// scope: the ledger hands an exact Settlement to a PaymentGateway
// collaborator and aborts the operation if the gateway refuses it.
package rightsledger
