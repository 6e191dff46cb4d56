// Package game implements the Pepper imitation game on top of the state
// machine engine.
//
// The robot plays a song, and at each section of the song shows a pose the
// user has to imitate. A pose checker publishes whether the user matched;
// the robot gives feedback and moves to the next section once the user
// succeeds. When the user is lost the game looks for them for a while
// before giving up. An "exit" user command cancels the game at any time.
//
// # Wiring
//
// Build assembles the full hierarchy from a bus.Receiver for inputs and an
// Actuator for outputs:
//
//	root, err := game.Build(game.Deps{
//	    Receiver: b,
//	    Actuator: game.NewBusActuator(b, game.DefaultChannels()),
//	    Observer: observer,
//	})
//	outcome, err := root.Run(ctx, state.NewStore(observer))
//
// The root outcome is one of game_success, game_error or game_canceled.
//
// # Content
//
// The song sections are data. DefaultContent reproduces the original game;
// LoadContent reads a YAML or JSON file:
//
//	sections:
//	  - start_time: 8.5
//	    pose: HANDS_ON_HEAD
package game
