/*
Package link implements link descriptors: serialization of the link header,
matching a descriptor against a follow query, and expanding URI-templated
hrefs (RFC 6570) into concrete paths.

Servers advertise their resources through ordered link lists; callers never
build URLs by hand, they describe what they want (rel tags, an id, template
parameters) and let Find and Expand produce the address.
*/
package link
