// Package contacts holds the address-book model and the duplicate-merge
// import service used by the contact importers.
//
// An imported record is merged into an existing contact when they share a
// normalised phone number or an e-mail address (case-insensitive). A record
// carrying neither is matched on its display name.
package contacts
