// Package deposit creates repository objects in the SDR.
//
// A deposit describes the local files (FileDescriptor), works out their
// metadata (BuildFileEntries), uploads them with the direct upload protocol
// (Uploader), arranges them in file sets (GroupingStrategy) and finally posts
// the request document to the service. Process drives the whole sequence;
// ModelProcess does the same for documents whose file sets are already
// arranged by the user.
package deposit
