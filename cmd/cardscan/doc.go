// Command cardscan analyzes photographs of trading cards.
//
// It measures centering against the printed frame, assigns a tag tier and
// centering subgrade per face, fingerprints each face with perceptual
// hashes and decides whether the physical card has been scanned before.
//
// Common invocations:
//
//	cardscan analyze front.jpg back.jpg --owner alice
//	cardscan analyze front.jpg --front-quad 0.1,0.1,0.9,0.1,0.9,0.9,0.1,0.9
//	cardscan hash front.jpg
//	cardscan match --front c3a1f00e4b2d9a17.7f3e0c1b2a4d5e6f --owner alice
//	cardscan scans list --owner alice
//	cardscan bindings list
//	cardscan doctor
//
// Configuration is read from ~/.config/cardscan/config.toml, falling back to
// ./cardscan.toml; `cardscan config init` writes a commented sample.
package main
