// Package pbap is an index for the packages of a Phone Book Access Profile
// data provider.
//
// This root package is documentation-only. Import specific subpackages to use
// concrete pieces.
//
// Available subpackages:
//   - github.com/spachava753/pbap/phonebook
//     Request orchestration: folder navigation, pull, listing cache and
//     single-entry requests against a Backend.
//   - github.com/spachava753/pbap/vcard
//     vCard 2.1/3.0 and vCard-listing encoders.
//   - github.com/spachava753/pbap/contact
//     The merged contact record the encoders consume.
//   - github.com/spachava753/pbap/store/sqlstore
//     SQLite-backed contact and call history store.
//   - github.com/spachava753/pbap/store/opimd
//     Backend reading the freesmartphone.org opimd daemon over D-Bus.
//   - github.com/spachava753/pbap/cmd/pbap
//     Command line front end.
//
// Discovery workflow:
//   - Run: go doc github.com/spachava753/pbap
//   - Then drill in with:
//     go doc github.com/spachava753/pbap/phonebook
//     go doc github.com/spachava753/pbap/store/sqlstore
package pbap
