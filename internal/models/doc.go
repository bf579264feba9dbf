// Package models defines the core domain models for Splittab.
//
// The models map one-to-one onto storage rows and, via their JSON tags,
// onto API responses:
//   - User: a registered account, identified by email
//   - Group: a set of users who share expenses
//   - Expense: a cost paid by one member and split among participants
//   - Payment: a settlement payment between two members
//
// Relationships are carried as ID strings rather than pointers, except
// for Group.Members which is loaded eagerly because nearly every caller
// needs the member list.
package models
