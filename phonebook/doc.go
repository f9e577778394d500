// Package phonebook is the data provider behind a PBAP server. It turns
// PullPhoneBook, PullvCardListing and PullvCardEntry requests into backend
// queries, folds the returned rows into contacts and hands vCards back to
// the OBEX transport.
//
// Request flow
//
//  1. Resolve(kind, name, maxCount)
//     Maps a request to a query Descriptor (target, mode, column count).
//     A pull with MaxCount 0 resolves to the Count variant.
//  2. Provider.Pull / Provider.GetEntry / Provider.CreateCache
//     Suspend the transport, issue the query and return a Request.
//     Rows arrive asynchronously from the Backend and are fed to a Merger
//     (Fetch, Entry), a counter (Count), or a CacheSink (List).
//  3. Completion
//     On end of stream the contacts are rendered with package vcard,
//     appended to the transport once, and the transport is resumed with
//     the contact count and the number of new missed calls.
//  4. Request.Finalize
//     Cancels outstanding queries. Replies arriving afterwards are dropped.
//
// Missed calls
//
// A pull of telecom/mch.vcf first scans the MissedScanLimit most recent
// missed calls to count unread numbers, then runs the regular missed-calls
// query. A failure of the scan fails the whole request.
//
// Row contract
//
// Fetch and Entry rows carry FetchColumns columns (see the Col constants).
// Multi-valued columns hold elements separated by MainDelim, each element
// being "value SubDelim label". A row whose width does not match its
// descriptor fails the request with ErrContract.
//
// Errors
//
// Failures are *Error values with an ErrorCode; compare them with
// errors.Is against ErrNotFound, ErrInvalidRequest, ErrTransport,
// ErrBackend, ErrContract and ErrCanceled.
package phonebook
